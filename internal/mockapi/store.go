package mockapi

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/samber/lo"
	"golang.org/x/crypto/bcrypt"
)

// Store errors.
var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnknownToken       = errors.New("unknown or revoked token")
)

// Collection names served by the mock.
const (
	CollectionPatients      = "patients"
	CollectionConsultations = "consultations"
	CollectionPrescriptions = "prescriptions"
	CollectionProfessionals = "healthcareprofessionals"
	CollectionMedications   = "medications"
	CollectionForms         = "pharmaceutical-forms"
	CollectionCie10         = "cie10"
)

// RoleUser is assigned to every self-registered account.
const RoleUser = "USER"

// Record is one seeded row of a collection.
type Record map[string]any

// User is the public view of an account.
type User struct {
	ID        int64  `json:"id"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Enabled   bool   `json:"enabled"`
}

// Page mirrors the paged envelope returned by the SICC list endpoints.
type Page struct {
	Content       []Record `json:"content"`
	TotalElements int      `json:"totalElements"`
	TotalPages    int      `json:"totalPages"`
	Number        int      `json:"number"`
	Size          int      `json:"size"`
	First         bool     `json:"first"`
	Last          bool     `json:"last"`
}

// DashboardStats is the body of GET /api/stats/dashboard.
type DashboardStats struct {
	TotalConsultations         int64            `json:"totalConsultations"`
	TotalPatients              int64            `json:"totalPatients"`
	TotalPrescriptions         int64            `json:"totalPrescriptions"`
	AverageConsultationsPerDay float64          `json:"averageConsultationsPerDay"`
	ConsultationsByType        map[string]int64 `json:"consultationsByType"`
	ConsultationsByMonth       map[string]int64 `json:"consultationsByMonth"`
}

type account struct {
	user         User
	passwordHash []byte
}

// Store holds accounts, sessions and seeded collections in memory.
// Sessions are keyed by the id of the access token that opened them.
type Store struct {
	mu          sync.RWMutex
	accounts    map[string]*account
	sessions    map[string]string
	nextID      int64
	collections map[string][]Record
	tokens      *tokenIssuer
	bcryptCost  int
}

// NewStore creates a store with seedItems rows in every collection.
func NewStore(seedItems int) *Store {
	return &Store{
		accounts:    make(map[string]*account),
		sessions:    make(map[string]string),
		collections: seedCollections(seedItems),
		tokens:      newTokenIssuer(AccessTokenTTL),
		bcryptCost:  bcrypt.DefaultCost,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account. Emails are unique case-insensitively.
func (s *Store) Register(firstname, lastname, email, password string) (User, error) {
	key := normalizeEmail(email)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return User{}, fmt.Errorf("hashing password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[key]; ok {
		return User{}, ErrEmailTaken
	}
	s.nextID++
	acc := &account{
		user: User{
			ID:        s.nextID,
			Firstname: firstname,
			Lastname:  lastname,
			Email:     key,
			Role:      RoleUser,
			Enabled:   true,
		},
		passwordHash: hash,
	}
	s.accounts[key] = acc
	return acc.user, nil
}

// Authenticate checks credentials.
func (s *Store) Authenticate(email, password string) (User, error) {
	s.mu.RLock()
	acc, ok := s.accounts[normalizeEmail(email)]
	s.mu.RUnlock()

	if !ok || bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return acc.user, nil
}

// IssueToken opens a session for email and returns its signed access token.
func (s *Store) IssueToken(email string) (string, error) {
	key := normalizeEmail(email)
	token, id, err := s.tokens.Issue(key)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.sessions[id] = key
	s.mu.Unlock()

	return token, nil
}

// Resolve returns the user owning token. The token must verify and its
// session must still be open.
func (s *Store) Resolve(token string) (User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return User{}, fmt.Errorf("%w: %w", ErrUnknownToken, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	email, ok := s.sessions[claims.ID]
	if !ok || email != claims.Subject {
		return User{}, ErrUnknownToken
	}
	acc, ok := s.accounts[email]
	if !ok {
		return User{}, ErrUnknownToken
	}
	return acc.user, nil
}

// Revoke ends the session for token. Invalid or unknown tokens are ignored.
func (s *Store) Revoke(token string) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return
	}

	s.mu.Lock()
	delete(s.sessions, claims.ID)
	s.mu.Unlock()
}

// Page returns a zero-based page of collection.
func (s *Store) Page(collection string, page, size int) (Page, bool) {
	s.mu.RLock()
	rows, ok := s.collections[collection]
	s.mu.RUnlock()
	if !ok {
		return Page{}, false
	}

	total := len(rows)
	totalPages := 0
	if size > 0 {
		totalPages = (total + size - 1) / size
	}

	start := min(page*size, total)
	end := min(start+size, total)

	content := make([]Record, end-start)
	copy(content, rows[start:end])

	return Page{
		Content:       content,
		TotalElements: total,
		TotalPages:    totalPages,
		Number:        page,
		Size:          size,
		First:         page == 0,
		Last:          page >= totalPages-1,
	}, true
}

// All returns every row of collection.
func (s *Store) All(collection string) ([]Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, ok := s.collections[collection]
	if !ok {
		return nil, false
	}
	out := make([]Record, len(rows))
	copy(out, rows)
	return out, true
}

// Dashboard aggregates counts over the seeded collections.
func (s *Store) Dashboard() DashboardStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	consultations := s.collections[CollectionConsultations]
	byType := make(map[string]int64)
	byMonth := make(map[string]int64)
	for _, c := range consultations {
		byType[fmt.Sprint(c["type"])]++
		byMonth[fmt.Sprint(c["month"])]++
	}

	var perDay float64
	if len(byMonth) > 0 {
		perDay = float64(len(consultations)) / float64(len(byMonth)*30)
	}

	return DashboardStats{
		TotalConsultations:         int64(len(consultations)),
		TotalPatients:              int64(len(s.collections[CollectionPatients])),
		TotalPrescriptions:         int64(len(s.collections[CollectionPrescriptions])),
		AverageConsultationsPerDay: perDay,
		ConsultationsByType:        byType,
		ConsultationsByMonth:       byMonth,
	}
}

var (
	firstnames     = []string{"María", "José", "Ana", "Pedro", "Camila", "Luis", "Fernanda", "Diego"}
	lastnames      = []string{"González", "Muñoz", "Rojas", "Díaz", "Soto", "Contreras", "Silva", "Morales"}
	specialties    = []string{"Medicina General", "Pediatría", "Cardiología", "Neumología", "Geriatría"}
	consultTypes   = []string{"CONTROL", "URGENCIA", "PRIMERA_VEZ"}
	medicationList = []string{"Paracetamol", "Ibuprofeno", "Amoxicilina", "Losartán", "Metformina", "Salbutamol"}
	forms          = []string{"Comprimido", "Cápsula", "Jarabe", "Inhalador", "Solución inyectable"}
	cie10Codes     = []struct{ code, desc string }{
		{"J00", "Rinofaringitis aguda"},
		{"J18.9", "Neumonía, no especificada"},
		{"I10", "Hipertensión esencial"},
		{"E11", "Diabetes mellitus tipo 2"},
		{"J45", "Asma"},
		{"K29.7", "Gastritis, no especificada"},
	}
)

func pick[T any](list []T, i int) T {
	return list[i%len(list)]
}

func seedCollections(n int) map[string][]Record {
	gen := map[string]func(i int) Record{
		CollectionPatients: func(i int) Record {
			return Record{
				"id":        i,
				"firstname": pick(firstnames, i),
				"lastname":  pick(lastnames, i+3),
				"rut":       fmt.Sprintf("%d-%d", 10000000+i*7919, i%10),
				"sex":       pick([]string{"F", "M"}, i),
			}
		},
		CollectionConsultations: func(i int) Record {
			return Record{
				"id":        i,
				"patientId": 1 + i%max(n, 1),
				"type":      pick(consultTypes, i),
				"month":     fmt.Sprintf("2024-%02d", 1+i%12),
				"diagnosis": pick(cie10Codes, i).code,
			}
		},
		CollectionPrescriptions: func(i int) Record {
			return Record{
				"id":             i,
				"consultationId": i,
				"medication":     pick(medicationList, i),
			}
		},
		CollectionProfessionals: func(i int) Record {
			return Record{
				"id":        i,
				"firstname": pick(firstnames, i+1),
				"lastname":  pick(lastnames, i),
				"specialty": pick(specialties, i),
			}
		},
		CollectionMedications: func(i int) Record {
			return Record{
				"id":   i,
				"name": pick(medicationList, i),
				"form": pick(forms, i),
			}
		},
		CollectionForms: func(i int) Record {
			return Record{"id": i, "name": pick(forms, i)}
		},
		CollectionCie10: func(i int) Record {
			c := pick(cie10Codes, i)
			return Record{"id": i, "code": c.code, "description": c.desc}
		},
	}

	out := make(map[string][]Record, len(gen))
	for name, fn := range gen {
		size := n
		if name == CollectionForms {
			size = min(n, len(forms))
		}
		out[name] = lo.Times(max(size, 0), func(i int) Record { return fn(i + 1) })
	}
	return out
}
