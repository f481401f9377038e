package services

import (
	"context"
	"fmt"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookclub-lms/internal/adapters/persistence/repositories"
	"bookclub-lms/internal/core/domain"
)

var isbnFormat = regexp.MustCompile(`^ISBN-\d+-\d{4}$`)

func TestBookService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("keeps a supplied ISBN", func(t *testing.T) {
		svc := NewBookService(newFakeBookRepo())

		book, err := svc.Create(ctx, &CreateBookInput{
			Title: "Clean Architecture", Author: "Robert C. Martin", ISBN: "978-0134494166", CopiesAvailable: 3,
		}, "admin")
		require.NoError(t, err)
		assert.Equal(t, "978-0134494166", book.ISBN)
		assert.Equal(t, 3, book.CopiesAvailable)
		assert.Equal(t, "admin", book.CreatedBy)
	})

	t.Run("generates an ISBN when none is supplied", func(t *testing.T) {
		svc := NewBookService(newFakeBookRepo())

		book, err := svc.Create(ctx, &CreateBookInput{Title: "Untitled", Author: "Anonymous"}, "admin")
		require.NoError(t, err)
		assert.Regexp(t, isbnFormat, book.ISBN)
	})

	t.Run("defaults to one copy", func(t *testing.T) {
		svc := NewBookService(newFakeBookRepo())

		book, err := svc.Create(ctx, &CreateBookInput{Title: "Untitled", Author: "Anonymous"}, "admin")
		require.NoError(t, err)
		assert.Equal(t, 1, book.CopiesAvailable)
	})

	t.Run("rejects a duplicate ISBN", func(t *testing.T) {
		svc := NewBookService(newFakeBookRepo())

		_, err := svc.Create(ctx, &CreateBookInput{Title: "First", Author: "A", ISBN: "dup-1"}, "admin")
		require.NoError(t, err)

		_, err = svc.Create(ctx, &CreateBookInput{Title: "Second", Author: "B", ISBN: "dup-1"}, "admin")
		assert.ErrorIs(t, err, ErrISBNTaken)
	})
}

func TestBookService_Update(t *testing.T) {
	ctx := context.Background()
	repo := newFakeBookRepo()
	svc := NewBookService(repo)

	book, err := svc.Create(ctx, &CreateBookInput{Title: "Original", Author: "A", Genre: "fiction", CopiesAvailable: 2}, "admin")
	require.NoError(t, err)

	t.Run("applies only the supplied fields", func(t *testing.T) {
		title := "Revised"
		copies := 5
		updated, err := svc.Update(ctx, book.ID, &UpdateBookInput{Title: &title, CopiesAvailable: &copies}, "librarian")
		require.NoError(t, err)

		assert.Equal(t, "Revised", updated.Title)
		assert.Equal(t, 5, updated.CopiesAvailable)
		assert.Equal(t, "A", updated.Author)
		assert.Equal(t, "librarian", updated.UpdatedBy)
	})

	t.Run("rejects negative copies", func(t *testing.T) {
		copies := -1
		_, err := svc.Update(ctx, book.ID, &UpdateBookInput{CopiesAvailable: &copies}, "librarian")
		assert.ErrorIs(t, err, domain.ErrNegativeCopyCount)
	})

	t.Run("unknown book", func(t *testing.T) {
		title := "x"
		_, err := svc.Update(ctx, 999, &UpdateBookInput{Title: &title}, "librarian")
		assert.ErrorIs(t, err, domain.ErrBookNotFound)
	})
}

func TestBookService_DeleteAndGenres(t *testing.T) {
	ctx := context.Background()
	repo := newFakeBookRepo()
	svc := NewBookService(repo)

	for i, genre := range []string{"fiction", "fiction", "history"} {
		_, err := svc.Create(ctx, &CreateBookInput{
			Title: "Book", Author: "A", ISBN: fmt.Sprintf("isbn-%d", i), Genre: genre,
		}, "admin")
		require.NoError(t, err)
	}

	genres, err := svc.Genres(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"fiction", "history"}, genres)

	assert.NoError(t, svc.Delete(ctx, 1))
	assert.ErrorIs(t, svc.Delete(ctx, 1), domain.ErrBookNotFound)

	_, err = svc.GetByID(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrBookNotFound)
}

func TestBookService_List(t *testing.T) {
	ctx := context.Background()
	svc := NewBookService(newFakeBookRepo())

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, &CreateBookInput{Title: "Book", Author: "A", ISBN: fmt.Sprintf("isbn-%d", i)}, "admin")
		require.NoError(t, err)
	}

	books, total, err := svc.List(ctx, repositories.BookFilter{}, 0, 20)
	require.NoError(t, err)
	assert.Len(t, books, 3)
	assert.EqualValues(t, 3, total)
}
