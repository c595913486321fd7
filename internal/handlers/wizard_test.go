package handlers

import (
	"context"
	"io"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teataster/teataster/internal/album"
	"github.com/teataster/teataster/internal/analytics"
	"github.com/teataster/teataster/internal/models"
	"github.com/teataster/teataster/internal/repository"
	"github.com/teataster/teataster/internal/service"
	"github.com/teataster/teataster/internal/session"
)

// fakeResponder records prompts instead of talking to Telegram.
type fakeResponder struct {
	chatID  int64
	texts   []string
	markups []*tgbotapi.InlineKeyboardMarkup
}

func (r *fakeResponder) ChatID() int64 { return r.chatID }

func (r *fakeResponder) Respond(text string, markup *tgbotapi.InlineKeyboardMarkup) error {
	r.texts = append(r.texts, text)
	r.markups = append(r.markups, markup)
	return nil
}

func (r *fakeResponder) last() string {
	if len(r.texts) == 0 {
		return ""
	}
	return r.texts[len(r.texts)-1]
}

type fixedUsers struct {
	user *models.User
}

func (s *fixedUsers) Get(ctx context.Context, id int64) (*models.User, error) { return s.user, nil }
func (s *fixedUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	return u, nil
}
func (s *fixedUsers) SetTimezone(ctx context.Context, id int64, offsetMin int) error { return nil }

type noopEvents struct{}

func (noopEvents) Insert(ctx context.Context, ev *models.BotEvent) error { return nil }
func (noopEvents) CountDistinctUsers(ctx context.Context, from, to time.Time) (int, error) {
	return 0, nil
}
func (noopEvents) CountEvents(ctx context.Context, event string, from, to time.Time) (int, error) {
	return 0, nil
}

func newWizardDeps(t *testing.T) *Deps {
	t.Helper()
	l := logrus.New()
	l.SetOutput(io.Discard)

	svc := service.New(nil, l, &fixedUsers{user: &models.User{ID: 1, TzOffsetMin: 180}}, nil, noopEvents{})
	svc.SetClock(func() time.Time { return time.Date(2026, 8, 26, 9, 0, 0, 0, time.UTC) })

	deps := New(svc, session.NewManager(), analytics.New(noopEvents{}, l, false),
		nil, nil, nil, l)
	deps.Albums = album.NewBuffer(func(int64, []string) {})
	return deps
}

func TestWizard_StartCreatesFlowAndAsksName(t *testing.T) {
	d := newWizardDeps(t)
	r := &fakeResponder{chatID: 1}

	require.NoError(t, d.startWizard(nil, r, 1))

	sess := d.Sessions.Get(1)
	require.NotNil(t, sess.Create)
	assert.Equal(t, session.StepName, sess.Create.Step)
	assert.Equal(t, "🍵 Tea name?", r.last())
}

func TestWizard_PromptsAdvanceTheStep(t *testing.T) {
	d := newWizardDeps(t)
	r := &fakeResponder{chatID: 1}
	flow := &session.CreateFlow{}

	steps := []struct {
		ask  func() error
		want session.CreateStep
	}{
		{func() error { return d.askYear(r, flow) }, session.StepYear},
		{func() error { return d.askRegion(r, flow) }, session.StepRegion},
		{func() error { return d.askCategory(r, flow) }, session.StepCategory},
		{func() error { return d.askGrams(r, flow) }, session.StepGrams},
		{func() error { return d.askTemp(r, flow) }, session.StepTemp},
		{func() error { return d.askTastedAt(r, flow, 1) }, session.StepTastedAt},
		{func() error { return d.askGear(r, flow) }, session.StepGear},
		{func() error { return d.askAromaDry(r, flow) }, session.StepAromaDry},
		{func() error { return d.askAromaWarmed(r, flow) }, session.StepAromaWarmed},
		{func() error { return d.askInfusionSeconds(r, flow) }, session.StepInfSeconds},
		{func() error { return d.askInfColor(r, flow) }, session.StepInfColor},
		{func() error { return d.askInfTaste(r, flow) }, session.StepInfTaste},
		{func() error { return d.askInfSpecial(r, flow) }, session.StepInfSpecial},
		{func() error { return d.askInfBody(r, flow) }, session.StepInfBody},
		{func() error { return d.askInfAftertaste(r, flow) }, session.StepInfAftertaste},
		{func() error { return d.finishInfusion(r, flow) }, session.StepMoreInfusions},
		{func() error { return d.askEffects(r, flow) }, session.StepEffects},
		{func() error { return d.askScenarios(r, flow) }, session.StepScenarios},
		{func() error { return d.askRating(r, flow) }, session.StepRating},
		{func() error { return d.askSummary(r, flow) }, session.StepSummary},
		{func() error { return d.askPhotos(r, flow, 1) }, session.StepPhotos},
	}

	for i, s := range steps {
		require.NoError(t, s.ask(), "step %d", i)
		assert.Equal(t, s.want, flow.Step, "step %d", i)
	}
	assert.Len(t, r.texts, len(steps), "every step prompts exactly once")
}

func TestWizard_TastedAtPromptShowsLocalTime(t *testing.T) {
	d := newWizardDeps(t)
	r := &fakeResponder{chatID: 1}
	flow := &session.CreateFlow{}

	// 09:00 UTC with a +180 min offset is 12:00 local
	require.NoError(t, d.askTastedAt(r, flow, 1))
	assert.Contains(t, r.last(), "12:00")
}

func TestWizard_FinishInfusionCollectsDraft(t *testing.T) {
	d := newWizardDeps(t)
	r := &fakeResponder{chatID: 1}
	seconds := 15
	flow := &session.CreateFlow{}
	flow.Draft.Current = &session.InfusionDraft{Seconds: &seconds, Taste: []string{"honey"}}

	require.NoError(t, d.finishInfusion(r, flow))

	require.Len(t, flow.Draft.Infusions, 1)
	assert.Equal(t, 15, *flow.Draft.Infusions[0].Seconds)
	assert.Nil(t, flow.Draft.Current)
	assert.Equal(t, session.StepMoreInfusions, flow.Step)

	// a second infusion starts from a clean draft, numbered next
	require.NoError(t, d.askInfusionSeconds(r, flow))
	require.NotNil(t, flow.Draft.Current)
	assert.Nil(t, flow.Draft.Current.Seconds)
	assert.Contains(t, r.last(), "Infusion 2")
}

func TestWizard_StaleInfusionSkipIgnored(t *testing.T) {
	d := newWizardDeps(t)
	r := &fakeResponder{chatID: 1}
	cb := NewWizardCallback(d)
	q := &tgbotapi.CallbackQuery{From: &tgbotapi.User{ID: 1}}

	// after finishInfusion the scratch draft is gone; a leftover skip
	// button from the previous infusion must not re-enter the sub-cycle
	flow := &session.CreateFlow{Step: session.StepMoreInfusions}

	require.NoError(t, cb.handleSkip(nil, r, q, flow, "color"))
	assert.Equal(t, session.StepMoreInfusions, flow.Step)
	assert.Empty(t, r.texts)

	require.NoError(t, cb.handleSkip(nil, r, q, flow, "special"))
	assert.Equal(t, session.StepMoreInfusions, flow.Step)
	assert.Empty(t, r.texts)
}

func TestWizard_InfusionTextRecreatesMissingDraft(t *testing.T) {
	d := newWizardDeps(t)
	r := &fakeResponder{chatID: 1}
	flow := &session.CreateFlow{Step: session.StepInfTaste}

	require.NoError(t, d.handleWizardText(r, 1, "honey", flow))

	require.NotNil(t, flow.Draft.Current)
	assert.Equal(t, []string{"honey"}, flow.Draft.Current.Taste)
	assert.Equal(t, session.StepInfSpecial, flow.Step)
}

func TestWizard_AromaStepsResetSelection(t *testing.T) {
	d := newWizardDeps(t)
	r := &fakeResponder{chatID: 1}
	flow := &session.CreateFlow{Sel: []string{"floral"}, AwaitingCustom: true}

	require.NoError(t, d.askAromaDry(r, flow))
	assert.Empty(t, flow.Sel)
	assert.False(t, flow.AwaitingCustom)
}

var _ repository.EventRepository = noopEvents{}
