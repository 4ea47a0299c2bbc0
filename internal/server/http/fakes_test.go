package httpserver

import (
	"context"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/danek0100/External-Observer/internal/errs"
	"github.com/danek0100/External-Observer/internal/model"
	"github.com/danek0100/External-Observer/internal/report"
)

// fakeAuth accepts tokens of the form "tok-<username>".
type fakeAuth struct {
	registerErr error
	loginErr    error
	deleted     string
	loginIP     string
}

func (f *fakeAuth) Register(_ context.Context, username, _ string) (string, error) {
	if f.registerErr != nil {
		return "", f.registerErr
	}
	return "id-" + username, nil
}

func (f *fakeAuth) LoginWithIP(_ context.Context, username, _ string, ip string) (model.Tokens, error) {
	f.loginIP = ip
	if f.loginErr != nil {
		return model.Tokens{}, f.loginErr
	}
	return model.Tokens{AccessToken: "tok-" + username, ExpiresAt: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)}, nil
}

func (f *fakeAuth) ParseAccessToken(token string) (string, error) {
	u, ok := strings.CutPrefix(token, "tok-")
	if !ok || u == "" {
		return "", errs.ErrUnauthorized
	}
	return u, nil
}

func (f *fakeAuth) DeleteAccount(_ context.Context, username string) error {
	f.deleted = username
	return nil
}

// fakeDocs records the owner and arguments of the last call.
type fakeDocs struct {
	owner    string
	tags     []string
	matchAll bool
	keyword  string
	input    model.DocumentInput
	docs     []model.Document
	err      error
}

func (f *fakeDocs) Create(_ context.Context, owner string, in model.DocumentInput) (*model.Document, error) {
	f.owner, f.input = owner, in
	if f.err != nil {
		return nil, f.err
	}
	return &model.Document{ID: uuid.Must(uuid.NewV4()), Owner: owner, Content: in.Content, Tags: in.Tags, Version: 1}, nil
}

func (f *fakeDocs) Update(_ context.Context, owner string, id uuid.UUID, in model.DocumentInput) (*model.Document, error) {
	f.owner, f.input = owner, in
	if f.err != nil {
		return nil, f.err
	}
	return &model.Document{ID: id, Owner: owner, Content: in.Content, Version: 2}, nil
}

func (f *fakeDocs) Delete(_ context.Context, owner string, _ uuid.UUID) error {
	f.owner = owner
	return f.err
}

func (f *fakeDocs) Get(_ context.Context, owner string, id uuid.UUID) (*model.Document, error) {
	f.owner = owner
	if f.err != nil {
		return nil, f.err
	}
	return &model.Document{ID: id, Owner: owner, Version: 1}, nil
}

func (f *fakeDocs) List(_ context.Context, owner string) ([]model.Document, error) {
	f.owner = owner
	return f.docs, f.err
}

func (f *fakeDocs) FindByTags(_ context.Context, owner string, tags []string, matchAll bool) ([]model.Document, error) {
	f.owner, f.tags, f.matchAll = owner, tags, matchAll
	return f.docs, f.err
}

func (f *fakeDocs) FindByKeyword(_ context.Context, owner, keyword string) ([]model.Document, error) {
	f.owner, f.keyword = owner, keyword
	return f.docs, f.err
}

func (f *fakeDocs) Search(_ context.Context, owner string, tags []string, keyword string) ([]model.Document, error) {
	f.owner, f.tags, f.keyword = owner, tags, keyword
	return f.docs, f.err
}

func (f *fakeDocs) History(_ context.Context, owner string, _ uuid.UUID) ([]model.DocumentRevision, error) {
	f.owner = owner
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.DocumentRevision, 0, len(f.docs))
	for _, d := range f.docs {
		out = append(out, model.DocumentRevision{Document: d})
	}
	return out, nil
}

func (f *fakeDocs) Backlinks(_ context.Context, owner string, _ uuid.UUID) ([]model.Document, error) {
	f.owner = owner
	return f.docs, f.err
}

// fakeHabits records arguments and returns canned data.
type fakeHabits struct {
	owner     string
	ids       []uuid.UUID
	day       model.Day
	from, to  model.Day
	completed bool
	comment   string
	habitID   uuid.UUID
	habits    []model.Habit
	checks    []model.HabitCheck
	err       error
}

func (f *fakeHabits) ListHabits(_ context.Context, owner string) ([]model.Habit, error) {
	f.owner = owner
	return f.habits, f.err
}

func (f *fakeHabits) CreateHabit(_ context.Context, owner string, in model.HabitInput) (*model.Habit, error) {
	f.owner = owner
	if f.err != nil {
		return nil, f.err
	}
	return &model.Habit{ID: uuid.Must(uuid.NewV4()), Owner: owner, Name: in.Name, Order: 1}, nil
}

func (f *fakeHabits) UpdateHabit(_ context.Context, owner string, id uuid.UUID, in model.HabitInput) (*model.Habit, error) {
	f.owner = owner
	if f.err != nil {
		return nil, f.err
	}
	return &model.Habit{ID: id, Owner: owner, Name: in.Name}, nil
}

func (f *fakeHabits) DeleteHabit(_ context.Context, owner string, id uuid.UUID) error {
	f.owner, f.habitID = owner, id
	return f.err
}

func (f *fakeHabits) ReorderHabits(_ context.Context, owner string, ids []uuid.UUID) error {
	f.owner, f.ids = owner, ids
	return f.err
}

func (f *fakeHabits) ChecksForDay(_ context.Context, owner string, day model.Day) ([]model.HabitCheck, error) {
	f.owner, f.day = owner, day
	return f.checks, f.err
}

func (f *fakeHabits) ChecksForPeriod(_ context.Context, owner string, from, to model.Day) ([]model.HabitCheck, error) {
	f.owner, f.from, f.to = owner, from, to
	return f.checks, f.err
}

func (f *fakeHabits) UpsertCheck(_ context.Context, owner string, habitID uuid.UUID, day model.Day, completed bool, comment string) (*model.HabitCheck, error) {
	f.owner, f.habitID, f.day, f.completed, f.comment = owner, habitID, day, completed, comment
	if f.err != nil {
		return nil, f.err
	}
	return &model.HabitCheck{HabitID: habitID, Owner: owner, Day: day, Completed: completed, Comment: comment}, nil
}

func (f *fakeHabits) Period(_ context.Context, owner string, from, to model.Day) (*report.Grid, error) {
	f.owner, f.from, f.to = owner, from, to
	if f.err != nil {
		return nil, f.err
	}
	return report.Aggregate(f.habits, f.checks, from, to), nil
}
