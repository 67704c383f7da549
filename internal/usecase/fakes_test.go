package usecase

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/C-gyeltshen/Web102-Cap2/internal/domain"
	"github.com/C-gyeltshen/Web102-Cap2/internal/messaging/payloads"
)

type memoryUsers struct {
	mu      sync.Mutex
	byEmail map[string]domain.User
	err     error
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byEmail: map[string]domain.User{}}
}

func (m *memoryUsers) CreateUser(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.byEmail[user.Email]; ok {
		return domain.ErrEmailTaken
	}
	user.ID = uuid.New()
	m.byEmail[user.Email] = *user
	return nil
}

func (m *memoryUsers) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

// plainHasher stores passwords reversed. Enough to tell digests from passwords.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) {
	r := []rune(password)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return "digest:" + string(r), nil
}

func (h plainHasher) Compare(digest, password string) error {
	want, _ := h.Hash(password)
	if digest != want {
		return domain.ErrInvalidCredentials
	}
	return nil
}

type stubIssuer struct {
	expiresAt time.Time
	subjects  []string
}

func (s *stubIssuer) Issue(subject string) (string, time.Time, error) {
	s.subjects = append(s.subjects, subject)
	return "token-for-" + subject, s.expiresAt, nil
}

type memoryPokemon struct {
	mu      sync.Mutex
	nextID  int64
	records map[int64]domain.CaughtPokemon
	writes  int
}

func newMemoryPokemon() *memoryPokemon {
	return &memoryPokemon{nextID: 1, records: map[int64]domain.CaughtPokemon{}}
}

func (m *memoryPokemon) nameTaken(name string, except int64) bool {
	for id, r := range m.records {
		if r.PokemonName == name && id != except {
			return true
		}
	}
	return false
}

func (m *memoryPokemon) CreatePokemon(_ context.Context, p *domain.CaughtPokemon) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.nameTaken(p.PokemonName, 0) {
		return domain.ErrPokemonExists
	}
	p.PokemonID = m.nextID
	m.nextID++
	m.records[p.PokemonID] = *p
	m.writes++
	return nil
}

func (m *memoryPokemon) ListPokemon(context.Context) ([]domain.CaughtPokemon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.CaughtPokemon{}
	for id := int64(1); id < m.nextID; id++ {
		if r, ok := m.records[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memoryPokemon) GetPokemonByID(_ context.Context, id int64) (*domain.CaughtPokemon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return nil, domain.ErrPokemonNotFound
	}
	return &r, nil
}

func (m *memoryPokemon) UpdatePokemon(_ context.Context, p *domain.CaughtPokemon) (*domain.CaughtPokemon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[p.PokemonID]; !ok {
		return nil, domain.ErrPokemonNotFound
	}
	if m.nameTaken(p.PokemonName, p.PokemonID) {
		return nil, domain.ErrPokemonExists
	}
	m.records[p.PokemonID] = *p
	m.writes++
	out := *p
	return &out, nil
}

func (m *memoryPokemon) DeletePokemon(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return domain.ErrPokemonNotFound
	}
	delete(m.records, id)
	m.writes++
	return nil
}

func (m *memoryPokemon) UpdatePokemonImage(_ context.Context, id int64, sourceURL, image string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok || r.Image != sourceURL {
		return domain.ErrPokemonNotFound
	}
	r.Image = image
	m.records[id] = r
	m.writes++
	return nil
}

type recordingPublisher struct {
	jobs []payloads.PokemonImagePayload
	err  error
}

func (p *recordingPublisher) PublishPokemonImage(_ context.Context, job payloads.PokemonImagePayload) error {
	if p.err != nil {
		return p.err
	}
	p.jobs = append(p.jobs, job)
	return nil
}

type fakeFetcher struct {
	fetch func(ctx context.Context, sourceURL string) (*domain.RemoteImage, error)
}

func (f *fakeFetcher) FetchImage(ctx context.Context, sourceURL string) (*domain.RemoteImage, error) {
	return f.fetch(ctx, sourceURL)
}

func imageOf(body string) *domain.RemoteImage {
	return &domain.RemoteImage{
		Body:        io.NopCloser(strings.NewReader(body)),
		ContentType: "image/png",
		Size:        int64(len(body)),
	}
}

type fakeFiles struct {
	uploaded map[string]string
	deleted  []string
	err      error
}

func (f *fakeFiles) UploadFile(_ context.Context, key string, reader io.Reader, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	if f.uploaded == nil {
		f.uploaded = map[string]string{}
	}
	f.uploaded[key] = string(data)
	return "http://minio:9000/pokemon-images/" + key, nil
}

func (f *fakeFiles) DeleteFile(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	delete(f.uploaded, key)
	return nil
}
