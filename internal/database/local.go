package database

import "context"

// LocalStore is one client's durable key/value storage: a chat, or a CLI
// profile. It is the server-side stand-in for browser local storage.
type LocalStore struct {
	repo     *Repository
	clientID string
}

func NewLocalStore(repo *Repository, clientID string) *LocalStore {
	return &LocalStore{repo: repo, clientID: clientID}
}

func (s *LocalStore) ClientID() string {
	return s.clientID
}

func (s *LocalStore) Get(ctx context.Context, key string) (string, bool, error) {
	return s.repo.GetLocal(ctx, s.clientID, key)
}

func (s *LocalStore) Set(ctx context.Context, key, value string) error {
	return s.repo.SetLocal(ctx, s.clientID, key, value)
}

func (s *LocalStore) SetIfAbsent(ctx context.Context, key, value string) (string, error) {
	return s.repo.SetLocalIfAbsent(ctx, s.clientID, key, value)
}

func (s *LocalStore) Delete(ctx context.Context, key string) error {
	return s.repo.DeleteLocal(ctx, s.clientID, key)
}
