package service

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/chempartner/paperdesk/internal/model"
	"github.com/chempartner/paperdesk/internal/repository"
	"github.com/chempartner/paperdesk/internal/storage"
	"gorm.io/gorm"
)

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uint]*model.User)}
}

func (r *fakeUserRepo) Create(user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username || u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) find(match func(*model.User) bool) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) FindByID(id uint) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.ID == id })
}

func (r *fakeUserRepo) FindByUsername(username string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.Username == username })
}

func (r *fakeUserRepo) FindByEmail(email string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.Email == email })
}

func (r *fakeUserRepo) SetAdmin(id uint, isAdmin bool) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	u.IsAdmin = isAdmin
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) setActive(id uint, active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[id].IsActive = active
}

type fakePaperRepo struct {
	mu        sync.Mutex
	nextID    uint
	papers    map[uint]*model.Paper
	questions *fakeQuestionRepo
}

func newFakePaperRepo(questions *fakeQuestionRepo) *fakePaperRepo {
	return &fakePaperRepo{papers: make(map[uint]*model.Paper), questions: questions}
}

func (r *fakePaperRepo) Create(paper *model.Paper) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	paper.ID = r.nextID
	paper.CreatedAt = time.Now()
	paper.UpdatedAt = paper.CreatedAt
	cp := *paper
	r.papers[paper.ID] = &cp
	return nil
}

func (r *fakePaperRepo) FindByID(id uint) (*model.Paper, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.papers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	if p.PDFKey != nil {
		key := *p.PDFKey
		cp.PDFKey = &key
	}
	return &cp, nil
}

func (r *fakePaperRepo) FindByIDWithQuestions(id uint) (*model.Paper, error) {
	p, err := r.FindByID(id)
	if err != nil {
		return nil, err
	}
	if r.questions != nil {
		p.Questions, _ = r.questions.FindByPaperID(id)
	}
	return p, nil
}

func (r *fakePaperRepo) FindAll(offset, limit int) ([]model.Paper, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int, 0, len(r.papers))
	for id := range r.papers {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	var out []model.Paper
	for i, id := range ids {
		if i < offset {
			continue
		}
		if len(out) == limit {
			break
		}
		out = append(out, *r.papers[uint(id)])
	}
	return out, nil
}

func (r *fakePaperRepo) Update(paper *model.Paper) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.papers[paper.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Title = paper.Title
	p.Description = paper.Description
	p.DurationMinutes = paper.DurationMinutes
	p.TotalMarks = paper.TotalMarks
	p.UpdatedAt = time.Now()
	return nil
}

func (r *fakePaperRepo) SetPDFKey(id uint, key *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.papers[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if key == nil {
		p.PDFKey = nil
		return nil
	}
	k := *key
	p.PDFKey = &k
	return nil
}

func (r *fakePaperRepo) Delete(id uint, afterCommit func(paper *model.Paper) error) error {
	r.mu.Lock()
	p, ok := r.papers[id]
	if !ok {
		r.mu.Unlock()
		return gorm.ErrRecordNotFound
	}
	delete(r.papers, id)
	r.mu.Unlock()

	if afterCommit != nil {
		cp := *p
		if err := afterCommit(&cp); err != nil {
			r.mu.Lock()
			r.papers[id] = p
			r.mu.Unlock()
			return err
		}
	}
	if r.questions != nil {
		r.questions.deleteForPaper(id)
	}
	return nil
}

type fakeQuestionRepo struct {
	mu        sync.Mutex
	nextID    uint
	questions []model.Question
}

func (r *fakeQuestionRepo) Create(q *model.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	q.ID = r.nextID
	r.questions = append(r.questions, *q)
	return nil
}

func (r *fakeQuestionRepo) FindByPaperID(paperID uint) ([]model.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Question
	for _, q := range r.questions {
		if q.PaperID == paperID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (r *fakeQuestionRepo) deleteForPaper(paperID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.questions[:0]
	for _, q := range r.questions {
		if q.PaperID != paperID {
			kept = append(kept, q)
		}
	}
	r.questions = kept
}

type fakeSubmissionRepo struct {
	mu     sync.Mutex
	nextID uint
	subs   []model.PaperSubmission
}

func (r *fakeSubmissionRepo) Create(s *model.PaperSubmission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	s.ID = r.nextID
	r.subs = append(r.subs, *s)
	return nil
}

func (r *fakeSubmissionRepo) FindByUserID(userID uint) ([]model.PaperSubmission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.PaperSubmission
	for _, s := range r.subs {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	return out, nil
}

func (r *fakeSubmissionRepo) StatsByUserID(userID uint) (*repository.SubmissionStats, error) {
	subs, _ := r.FindByUserID(userID)
	stats := &repository.SubmissionStats{}
	for i, s := range subs {
		stats.Count++
		stats.TotalTimeSpent += int64(s.TimeSpentSeconds)
		if i == 0 || s.Marks > stats.HighestMarks {
			stats.HighestMarks = s.Marks
		}
		if i == 0 || s.Marks < stats.LowestMarks {
			stats.LowestMarks = s.Marks
		}
		stats.AverageMarks += float64(s.Marks)
	}
	if stats.Count > 0 {
		stats.AverageMarks /= float64(stats.Count)
	}
	return stats, nil
}

// plainHasher keeps tests fast; bcrypt is covered in the auth package.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }
func (plainHasher) Compare(hash, password string) bool   { return hash == "hashed:"+password }

// flakyStore wraps a BlobStore and fails the next Put or Delete on demand.
type flakyStore struct {
	storage.BlobStore
	failPut    bool
	failDelete bool
}

var errInjected = errors.New("injected storage failure")

func (s *flakyStore) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	if s.failPut {
		// Drain part of the body so a real partial write would have happened.
		io.CopyN(io.Discard, r, 4)
		return errInjected
	}
	return s.BlobStore.Put(ctx, key, r, size)
}

func (s *flakyStore) Delete(ctx context.Context, key string) error {
	if s.failDelete {
		return errInjected
	}
	return s.BlobStore.Delete(ctx, key)
}

func pdfBytes(body string) []byte {
	return []byte("%PDF-1.4\n" + body + "\n%%EOF\n")
}

func newUpload(name string, content []byte) *PDFUpload {
	return &PDFUpload{Filename: name, Size: int64(len(content)), Content: strings.NewReader(string(content))}
}
