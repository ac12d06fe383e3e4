package bookmarks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ketabyar/ketabyar/internal/entities"
)

type stubStore struct {
	bookmarks map[uint]*entities.Bookmark
	nextID    uint
}

func newStubStore() *stubStore {
	return &stubStore{bookmarks: make(map[uint]*entities.Bookmark), nextID: 1}
}

func (s *stubStore) CreateBookmark(bookmark *entities.Bookmark) error {
	bookmark.ID = s.nextID
	s.nextID++
	s.bookmarks[bookmark.ID] = bookmark
	return nil
}

func (s *stubStore) GetBookmarkByID(id uint) (*entities.Bookmark, error) {
	bookmark, ok := s.bookmarks[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return bookmark, nil
}

func (s *stubStore) GetBookmarksForBook(userID, bookID uint) ([]entities.Bookmark, error) {
	var out []entities.Bookmark
	for _, b := range s.bookmarks {
		if b.UserID == userID && b.BookID == bookID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *stubStore) GetBookmarksForUser(userID uint, limit, offset int) ([]entities.Bookmark, int64, error) {
	var out []entities.Bookmark
	for _, b := range s.bookmarks {
		if b.UserID == userID {
			out = append(out, *b)
		}
	}
	return out, int64(len(out)), nil
}

func (s *stubStore) DeleteBookmark(id uint) error {
	delete(s.bookmarks, id)
	return nil
}

type stubBooks struct {
	existing map[uint]bool
}

func (s *stubBooks) GetBookByID(id uint) (*entities.Book, error) {
	if !s.existing[id] {
		return nil, gorm.ErrRecordNotFound
	}
	return &entities.Book{ID: id}, nil
}

func newTestService() (*Service, *stubStore) {
	store := newStubStore()
	books := &stubBooks{existing: map[uint]bool{1: true}}
	return NewService(store, books), store
}

func TestService_Create(t *testing.T) {
	service, store := newTestService()

	bookmark, err := service.Create(1, 1, 12, "revisit this")
	require.NoError(t, err)
	assert.Equal(t, uint(1), bookmark.UserID)
	assert.Equal(t, 12, bookmark.PageNumber)
	assert.Len(t, store.bookmarks, 1)
}

func TestService_Create_InvalidPage(t *testing.T) {
	service, _ := newTestService()

	_, err := service.Create(1, 1, 0, "")
	assert.ErrorIs(t, err, ErrInvalidPage)
}

func TestService_Create_UnknownBook(t *testing.T) {
	service, _ := newTestService()

	_, err := service.Create(1, 99, 5, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_Create_AllowsDuplicates(t *testing.T) {
	service, store := newTestService()

	_, err := service.Create(1, 1, 5, "first")
	require.NoError(t, err)
	_, err = service.Create(1, 1, 5, "second")
	require.NoError(t, err)
	assert.Len(t, store.bookmarks, 2)
}

func TestService_Delete_OwnBookmark(t *testing.T) {
	service, store := newTestService()

	bookmark, err := service.Create(1, 1, 5, "")
	require.NoError(t, err)

	require.NoError(t, service.Delete(1, bookmark.ID))
	assert.Empty(t, store.bookmarks)
}

func TestService_Delete_OtherUsersBookmark(t *testing.T) {
	service, store := newTestService()

	bookmark, err := service.Create(1, 1, 5, "")
	require.NoError(t, err)

	err = service.Delete(2, bookmark.ID)
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.Len(t, store.bookmarks, 1, "bookmark must survive a foreign delete attempt")
}

func TestService_Delete_Missing(t *testing.T) {
	service, _ := newTestService()

	err := service.Delete(1, 42)
	assert.ErrorIs(t, err, ErrNotFound)
}
