// Package content holds the read-only script of an experience: gate
// credentials, scene copy, the ordered questions and their memories, and
// media settings. It is loaded from YAML once and shared by every session
// created while it is current.
package content

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/DoyleJ11/scene-quest/internal/effects"
	"github.com/DoyleJ11/scene-quest/internal/engine"
)

//go:embed default.yaml
var defaultYAML []byte

var ErrInvalidContent = errors.New("invalid content")

type MemoryItem struct {
	URL     string `yaml:"url" json:"url"`
	Caption string `yaml:"caption" json:"caption"`
}

type QuestionCopy struct {
	CorrectText   string `yaml:"correct_text" json:"correct_text"`
	IncorrectText string `yaml:"incorrect_text" json:"incorrect_text"`
	MemoryHint    string `yaml:"memory_hint" json:"memory_hint"`
	LoadingText   string `yaml:"loading_text" json:"loading_text"`
}

type Question struct {
	ID       int           `yaml:"id"`
	Text     string        `yaml:"text"`
	Options  []string      `yaml:"options"`
	Answer   string        `yaml:"answer"`
	Memories []MemoryItem  `yaml:"memories"`
	Backdrop string        `yaml:"backdrop,omitempty"`
	Copy     *QuestionCopy `yaml:"scene_copy,omitempty"`
}

type GateCopy struct {
	Title       string `yaml:"title" json:"title"`
	Subtitle    string `yaml:"subtitle" json:"subtitle"`
	Label       string `yaml:"label" json:"label"`
	Placeholder string `yaml:"placeholder" json:"placeholder"`
	ButtonText  string `yaml:"button_text" json:"button_text"`
	ErrorText   string `yaml:"error_text" json:"error_text"`
}

type Intro struct {
	Title        string   `yaml:"title" json:"title"`
	Message      string   `yaml:"message" json:"message"`
	VideoURL     string   `yaml:"video_url" json:"video_url"`
	VideoURLs    []string `yaml:"video_urls,omitempty" json:"video_urls,omitempty"`
	PrimaryCTA   string   `yaml:"primary_cta" json:"primary_cta"`
	SecondaryCTA string   `yaml:"secondary_cta" json:"secondary_cta"`
}

type Proposal struct {
	Title          string `yaml:"title" json:"title"`
	Message        string `yaml:"message" json:"message"`
	AudioURL       string `yaml:"audio_url" json:"audio_url"`
	YesText        string `yaml:"yes_text" json:"yes_text"`
	NoText         string `yaml:"no_text" json:"no_text"`
	SuccessMessage string `yaml:"success_message" json:"success_message"`
}

type Recap struct {
	Title    string `yaml:"title" json:"title"`
	Subtitle string `yaml:"subtitle" json:"subtitle"`
	Rows     []int  `yaml:"rows,omitempty" json:"-"`
}

type Backgrounds struct {
	Default  string `yaml:"default"`
	Password string `yaml:"password"`
	Intro    string `yaml:"intro"`
	Question string `yaml:"question"`
	Proposal string `yaml:"proposal"`
	Snapshot string `yaml:"snapshot"`
}

type Music struct {
	Enabled bool    `yaml:"enabled"`
	Src     string  `yaml:"src"`
	Volume  float64 `yaml:"volume"`
	Loop    *bool   `yaml:"loop,omitempty"`
}

type SFX struct {
	Enabled *bool             `yaml:"enabled,omitempty"`
	Volume  float64           `yaml:"volume"`
	Sounds  map[string]string `yaml:"sounds"`
}

type Content struct {
	Password      string       `yaml:"password"`
	BypassPhrase  string       `yaml:"bypass_phrase"`
	Gate          GateCopy     `yaml:"gate"`
	Intro         Intro        `yaml:"intro"`
	Questions     []Question   `yaml:"questions"`
	Proposal      Proposal     `yaml:"proposal"`
	QuestionScene QuestionCopy `yaml:"question_scene"`
	Recap         Recap        `yaml:"recap"`
	Backgrounds   Backgrounds  `yaml:"backgrounds"`
	Music         Music        `yaml:"music"`
	SFX           SFX          `yaml:"sfx"`
}

var fallbackCopy = QuestionCopy{
	CorrectText:   "Perfectly right.",
	IncorrectText: "Still adorable. Here's the memory.",
	MemoryHint:    "Little bubbles drifting through my favorite moments.",
	LoadingText:   "Collecting the next moment...",
}

func Parse(data []byte) (*Content, error) {
	var c Content
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func Load(path string) (*Content, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("content %s: %w", path, err)
	}
	return c, nil
}

// Default returns the built-in experience.
func Default() *Content {
	c, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded content: %v", err))
	}
	return c
}

// Validate checks structure only. Option uniqueness and media existence
// are deliberately not checked.
func (c *Content) Validate() error {
	var errs error
	if strings.TrimSpace(c.Password) == "" {
		errs = multierr.Append(errs, fmt.Errorf("%w: password is empty", ErrInvalidContent))
	}
	if c.BypassPhrase != "" && strings.EqualFold(strings.TrimSpace(c.BypassPhrase), strings.TrimSpace(c.Password)) {
		errs = multierr.Append(errs, fmt.Errorf("%w: bypass phrase equals password", ErrInvalidContent))
	}
	if len(c.Questions) == 0 {
		errs = multierr.Append(errs, fmt.Errorf("%w: no questions", ErrInvalidContent))
	}

	seen := map[int]bool{}
	for i, q := range c.Questions {
		if seen[q.ID] {
			errs = multierr.Append(errs, fmt.Errorf("%w: question %d: duplicate id %d", ErrInvalidContent, i, q.ID))
		}
		seen[q.ID] = true
		if n := len(q.Options); n < 2 || n > 4 {
			errs = multierr.Append(errs, fmt.Errorf("%w: question %d: want 2-4 options, got %d", ErrInvalidContent, q.ID, n))
		}
		if q.Answer == "" {
			errs = multierr.Append(errs, fmt.Errorf("%w: question %d: no answer", ErrInvalidContent, q.ID))
		}
	}
	for _, n := range c.Recap.Rows {
		if n <= 0 {
			errs = multierr.Append(errs, fmt.Errorf("%w: recap row sizes must be positive", ErrInvalidContent))
			break
		}
	}
	return errs
}

// CopyFor resolves the feedback copy for q: the question's own copy when
// present, otherwise the scene default; blank fields take the built-in text.
func (c *Content) CopyFor(q Question) QuestionCopy {
	resolved := c.QuestionScene
	if q.Copy != nil {
		resolved = *q.Copy
	}
	return QuestionCopy{
		CorrectText:   orDefault(resolved.CorrectText, fallbackCopy.CorrectText),
		IncorrectText: orDefault(resolved.IncorrectText, fallbackCopy.IncorrectText),
		MemoryHint:    orDefault(resolved.MemoryHint, fallbackCopy.MemoryHint),
		LoadingText:   orDefault(resolved.LoadingText, fallbackCopy.LoadingText),
	}
}

// Question returns the question at index, if any.
func (c *Content) Question(index int) (Question, bool) {
	if index < 0 || index >= len(c.Questions) {
		return Question{}, false
	}
	return c.Questions[index], true
}

func (c *Content) QuestionByID(id int) (Question, bool) {
	for _, q := range c.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// Script derives the engine's view of the content.
func (c *Content) Script() engine.Script {
	prompts := make([]engine.Prompt, len(c.Questions))
	for i, q := range c.Questions {
		prompts[i] = engine.Prompt{ID: q.ID, Options: q.Options, Correct: q.Answer}
	}
	return engine.Script{
		Password:     c.Password,
		BypassPhrase: c.BypassPhrase,
		Questions:    prompts,
	}
}

// Backdrop returns the per-question background override at index.
func (c *Content) Backdrop(index int) string {
	q, ok := c.Question(index)
	if !ok {
		return ""
	}
	return q.Backdrop
}

// MemoryKeys is the identity list used to memoize a question's gallery.
func (q Question) MemoryKeys() []string {
	keys := make([]string, len(q.Memories))
	for i, m := range q.Memories {
		keys[i] = m.URL
	}
	return keys
}

func (b Backgrounds) ByContext() effects.Backgrounds {
	return effects.Backgrounds{
		effects.ContextDefault:  b.Default,
		effects.ContextPassword: b.Password,
		effects.ContextIntro:    b.Intro,
		effects.ContextQuestion: b.Question,
		effects.ContextProposal: b.Proposal,
		effects.ContextSnapshot: b.Snapshot,
	}
}

func (m Music) Settings() effects.MusicSettings {
	loop := true
	if m.Loop != nil {
		loop = *m.Loop
	}
	volume := m.Volume
	if volume == 0 {
		volume = 0.3
	}
	return effects.MusicSettings{Enabled: m.Enabled, Src: m.Src, Volume: volume, Loop: loop}
}

func (s SFX) Settings() effects.CueSettings {
	enabled := s.Enabled == nil || *s.Enabled
	volume := s.Volume
	if volume == 0 {
		volume = 0.4
	}
	sounds := make(map[effects.Cue]string, len(s.Sounds))
	for name, url := range s.Sounds {
		sounds[effects.Cue(name)] = url
	}
	return effects.CueSettings{Enabled: enabled, Volume: volume, Sounds: sounds}
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
