package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/cremaze/cremaze/app/models"
	"github.com/cremaze/cremaze/pkg/apperr"
	"github.com/cremaze/cremaze/pkg/validate"
)

type fakeContactStore struct {
	msgs map[primitive.ObjectID]models.ContactMessage
}

func newFakeContactStore() *fakeContactStore {
	return &fakeContactStore{msgs: map[primitive.ObjectID]models.ContactMessage{}}
}

func (f *fakeContactStore) Create(_ context.Context, msg *models.ContactMessage) error {
	msg.ID = primitive.NewObjectID()
	f.msgs[msg.ID] = *msg
	return nil
}

func (f *fakeContactStore) All(_ context.Context, filter bson.M) ([]models.ContactMessage, error) {
	out := []models.ContactMessage{}
	for _, m := range f.msgs {
		if v, ok := filter["isRead"].(bool); ok && m.IsRead != v {
			continue
		}
		if v, ok := filter["isArchived"].(bool); ok && m.IsArchived != v {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeContactStore) CountUnread(_ context.Context) (int64, error) {
	var n int64
	for _, m := range f.msgs {
		if !m.IsRead && !m.IsArchived {
			n++
		}
	}
	return n, nil
}

func (f *fakeContactStore) SetFlags(_ context.Context, id primitive.ObjectID, set bson.M) error {
	m, ok := f.msgs[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	if v, ok := set["isRead"].(bool); ok {
		m.IsRead = v
	}
	if v, ok := set["isArchived"].(bool); ok {
		m.IsArchived = v
	}
	f.msgs[id] = m
	return nil
}

func (f *fakeContactStore) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := f.msgs[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(f.msgs, id)
	return nil
}

type sentMail struct {
	to, subject string
}

func contactFixture() (*ContactService, *fakeContactStore, *[]sentMail) {
	store := newFakeContactStore()
	sent := &[]sentMail{}
	svc := NewContactServiceWith(store, func(to, subject, _ string) error {
		*sent = append(*sent, sentMail{to: to, subject: subject})
		return nil
	})
	return svc, store, sent
}

func TestSubmitStoresAndEmails(t *testing.T) {
	svc, store, sent := contactFixture()

	msg, err := svc.Submit(context.Background(), SubmitInput{
		Name:    "Meera",
		Email:   "meera@example.com",
		Message: "Do you deliver on Sundays?",
	})
	require.NoError(t, err)
	assert.False(t, msg.ID.IsZero())
	assert.False(t, msg.IsRead)
	assert.False(t, msg.IsArchived)
	assert.Len(t, store.msgs, 1)

	require.Len(t, *sent, 1)
	assert.Equal(t, "meera@example.com", (*sent)[0].to)
}

func TestSubmitSwallowsMailFailure(t *testing.T) {
	store := newFakeContactStore()
	svc := NewContactServiceWith(store, func(_, _, _ string) error {
		return assert.AnError
	})

	_, err := svc.Submit(context.Background(), SubmitInput{
		Name: "Meera", Email: "meera@example.com", Message: "hello",
	})
	assert.NoError(t, err, "mail failure must not fail the submission")
	assert.Len(t, store.msgs, 1)
}

func TestUnreadCount(t *testing.T) {
	svc, store, _ := contactFixture()

	a, _ := svc.Submit(context.Background(), SubmitInput{Name: "A", Email: "a@example.com", Message: "one"})
	b, _ := svc.Submit(context.Background(), SubmitInput{Name: "B", Email: "b@example.com", Message: "two"})
	_, _ = svc.Submit(context.Background(), SubmitInput{Name: "C", Email: "c@example.com", Message: "three"})

	count, err := svc.UnreadCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	// Read messages and archived messages both leave the badge.
	require.NoError(t, svc.MarkRead(context.Background(), a.ID.Hex()))
	require.NoError(t, svc.Archive(context.Background(), b.ID.Hex()))

	count, err = svc.UnreadCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// Restoring an unread archived message brings it back.
	require.NoError(t, svc.Restore(context.Background(), b.ID.Hex()))
	count, _ = svc.UnreadCount(context.Background())
	assert.Equal(t, int64(2), count)

	_ = store
}

func TestListFilters(t *testing.T) {
	svc, _, _ := contactFixture()

	a, _ := svc.Submit(context.Background(), SubmitInput{Name: "A", Email: "a@example.com", Message: "one"})
	b, _ := svc.Submit(context.Background(), SubmitInput{Name: "B", Email: "b@example.com", Message: "two"})
	require.NoError(t, svc.MarkRead(context.Background(), a.ID.Hex()))
	require.NoError(t, svc.Archive(context.Background(), b.ID.Hex()))

	all, err := svc.List(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	unread, err := svc.List(context.Background(), "unread")
	require.NoError(t, err)
	assert.Empty(t, unread, "read and archived messages are both excluded")

	archived, err := svc.List(context.Background(), "archived")
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, b.ID, archived[0].ID)

	_, err = svc.List(context.Background(), "bogus")
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))
}

func TestInboxFlagsAndDelete(t *testing.T) {
	svc, store, _ := contactFixture()

	msg, _ := svc.Submit(context.Background(), SubmitInput{Name: "D", Email: "d@example.com", Message: "four"})

	require.NoError(t, svc.Delete(context.Background(), msg.ID.Hex()))
	assert.Empty(t, store.msgs)

	// Unknown ids are not found; malformed ids are validation errors.
	assert.True(t, apperr.IsCode(svc.MarkRead(context.Background(), primitive.NewObjectID().Hex()), apperr.CodeNotFound))
	assert.True(t, apperr.IsCode(svc.Delete(context.Background(), primitive.NewObjectID().Hex()), apperr.CodeNotFound))
	assert.True(t, apperr.IsCode(svc.Archive(context.Background(), "zzz"), apperr.CodeValidation))
}

func TestSubmitInputTags(t *testing.T) {
	errs := validate.Struct(SubmitInput{Name: "Meera", Email: "meera@example.com"})
	assert.Contains(t, errs, "message", "empty message must be rejected")

	errs = validate.Struct(SubmitInput{
		Name: "Meera", Email: "meera@example.com",
		Message: strings.Repeat("x", 5001),
	})
	assert.Contains(t, errs, "message", "over-long message must be rejected")

	errs = validate.Struct(SubmitInput{
		Name: "Meera", Email: "meera@example.com", Message: "Do you deliver?",
	})
	assert.False(t, validate.HasErrors(errs), "unexpected errors: %v", errs)
}
