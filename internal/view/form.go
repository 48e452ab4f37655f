package view

import (
	"errors"
	"strings"
	"sync"
	"time"
)

// ErrInFlight возвращается при повторной отправке формы, пока предыдущая не завершилась.
var ErrInFlight = errors.New("form submission already in flight")

// Время показа сообщений формы.
const (
	SuccessDisplay = 3 * time.Second
	FailureDisplay = 4 * time.Second
)

// Phase — стадия отправки формы.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseSubmitting Phase = "submitting"
	PhaseSuccess    Phase = "success"
	PhaseFailure    Phase = "failure"
)

// FormStatus — снимок состояния формы для отрисовки.
type FormStatus struct {
	Phase     Phase      `json:"phase"`
	Message   string     `json:"message,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Form реализует цикл idle -> submitting -> success|failure -> idle.
// Сообщения success и failure сбрасываются в idle по истечении времени показа.
// Пока форма в submitting, повторный Begin отклоняется.
type Form struct {
	mu      sync.Mutex
	phase   Phase
	message string
	until   time.Time
	now     func() time.Time
}

// NewForm создаёт форму в состоянии idle.
func NewForm() *Form {
	return newFormWithClock(time.Now)
}

func newFormWithClock(now func() time.Time) *Form {
	return &Form{phase: PhaseIdle, now: now}
}

func (f *Form) expireLocked() {
	if (f.phase == PhaseSuccess || f.phase == PhaseFailure) && !f.now().Before(f.until) {
		f.phase = PhaseIdle
		f.message = ""
		f.until = time.Time{}
	}
}

// Begin переводит форму в submitting.
func (f *Form) Begin() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.phase == PhaseSubmitting {
		return ErrInFlight
	}
	f.phase = PhaseSubmitting
	f.message = ""
	f.until = time.Time{}
	return nil
}

// Succeed завершает отправку успехом.
func (f *Form) Succeed(message string) FormStatus {
	return f.finish(PhaseSuccess, message, SuccessDisplay)
}

// Fail завершает отправку неудачей.
func (f *Form) Fail(message string) FormStatus {
	return f.finish(PhaseFailure, message, FailureDisplay)
}

// Reset возвращает форму в idle без сообщения.
func (f *Form) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.phase = PhaseIdle
	f.message = ""
	f.until = time.Time{}
}

func (f *Form) finish(phase Phase, message string, display time.Duration) FormStatus {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.phase = phase
	f.message = message
	f.until = f.now().Add(display)
	return f.statusLocked()
}

// Status возвращает текущее состояние с учётом истёкших сообщений.
func (f *Form) Status() FormStatus {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.expireLocked()
	return f.statusLocked()
}

func (f *Form) statusLocked() FormStatus {
	st := FormStatus{Phase: f.phase, Message: f.message}
	if !f.until.IsZero() {
		until := f.until
		st.ExpiresAt = &until
	}
	return st
}

func (f *Form) idle() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.expireLocked()
	return f.phase == PhaseIdle
}

// pruneGrace — сколько Prune не трогает форму после последнего For.
// Обработчик успевает вызвать Begin, пока форма ещё в реестре.
const pruneGrace = time.Minute

type formEntry struct {
	form *Form
	used time.Time
}

// Forms хранит формы по паре (сессия, имя формы).
type Forms struct {
	mu    sync.Mutex
	forms map[string]*formEntry
	now   func() time.Time
}

// NewForms создаёт пустой реестр форм.
func NewForms() *Forms {
	return &Forms{
		forms: make(map[string]*formEntry),
		now:   time.Now,
	}
}

func formKey(sessionID, name string) string {
	return sessionID + "\x00" + name
}

// For возвращает форму name сессии sessionID, создавая её при необходимости.
func (r *Forms) For(sessionID, name string) *Form {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := formKey(sessionID, name)
	e, ok := r.forms[key]
	if !ok {
		e = &formEntry{form: newFormWithClock(r.now)}
		r.forms[key] = e
	}
	e.used = r.now()
	return e.form
}

// Drop удаляет все формы сессии.
func (r *Forms) Drop(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prefix := sessionID + "\x00"
	for key := range r.forms {
		if strings.HasPrefix(key, prefix) {
			delete(r.forms, key)
		}
	}
}

// Prune удаляет формы в состоянии idle, не запрошенные через For
// последние pruneGrace, и возвращает их число.
func (r *Forms) Prune() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	n := 0
	for key, e := range r.forms {
		if now.Sub(e.used) < pruneGrace {
			continue
		}
		if e.form.idle() {
			delete(r.forms, key)
			n++
		}
	}
	return n
}
