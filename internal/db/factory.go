package db

import (
	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
)

// RepositoryFactory builds repositories bound to one session's NetworkGate,
// so each session can take its own store access offline.
type RepositoryFactory interface {
	UserRepository(gate *NetworkGate) UserRepository
	PostRepository(gate *NetworkGate) PostRepository
	AuditRepository() AuditRepository
	// Probe checks store reachability without going through any gate. It may be nil.
	Probe() ProbeFunc
}

type firestoreFactory struct {
	client *firestore.Client
	logger *zap.Logger
}

// NewFirestoreFactory creates a RepositoryFactory backed by Firestore.
func NewFirestoreFactory(client *firestore.Client, logger *zap.Logger) RepositoryFactory {
	return &firestoreFactory{client: client, logger: logger}
}

func (f *firestoreFactory) UserRepository(gate *NetworkGate) UserRepository {
	return NewFirestoreUserRepository(f.client, gate, f.logger)
}

func (f *firestoreFactory) PostRepository(gate *NetworkGate) PostRepository {
	return NewFirestorePostRepository(f.client, gate)
}

func (f *firestoreFactory) AuditRepository() AuditRepository {
	return NewFirestoreAuditRepository(f.client)
}

func (f *firestoreFactory) Probe() ProbeFunc {
	return FirestoreProbe(f.client)
}

type memoryFactory struct {
	store *MemoryStore
}

// NewMemoryFactory creates a RepositoryFactory over store.
func NewMemoryFactory(store *MemoryStore) RepositoryFactory {
	return &memoryFactory{store: store}
}

func (f *memoryFactory) UserRepository(gate *NetworkGate) UserRepository {
	return NewMemoryUserRepository(f.store, gate)
}

func (f *memoryFactory) PostRepository(gate *NetworkGate) PostRepository {
	return NewMemoryPostRepository(f.store, gate)
}

func (f *memoryFactory) AuditRepository() AuditRepository {
	return NewMemoryAuditRepository(f.store)
}

func (f *memoryFactory) Probe() ProbeFunc { return nil }
