package seed

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/missions-backend/internal/data/repos"
	types "github.com/yungbote/missions-backend/internal/domain"
	"github.com/yungbote/missions-backend/internal/domain/learning"
	"github.com/yungbote/missions-backend/internal/platform/dbctx"
	"github.com/yungbote/missions-backend/internal/platform/logger"
)

//go:embed curriculum.yaml
var curriculumFS embed.FS

// cardNamespace keys deterministic card ids so reseeding updates in place.
var cardNamespace = uuid.MustParse("6f1c9a52-3d7e-4b8a-9c41-0e2f7d5b8a13")

type Curriculum struct {
	Journeys []Journey `yaml:"journeys" validate:"required,min=1,dive"`
}

type Journey struct {
	ID               uint      `yaml:"id" validate:"required"`
	Order            int       `yaml:"order" validate:"required,min=1"`
	Name             string    `yaml:"name" validate:"required"`
	Title            string    `yaml:"title" validate:"required"`
	Description      string    `yaml:"description" validate:"required"`
	Color            string    `yaml:"color" validate:"required,hexcolor"`
	Icon             string    `yaml:"icon" validate:"required"`
	RequiredMissions int       `yaml:"requiredMissions" validate:"min=0"`
	Missions         []Mission `yaml:"missions" validate:"required,min=1,dive"`
}

type Mission struct {
	ID          uint       `yaml:"id" validate:"required"`
	Number      int        `yaml:"number" validate:"required,min=1"`
	Order       int        `yaml:"order" validate:"required,min=1"`
	Title       string     `yaml:"title" validate:"required"`
	Subtitle    string     `yaml:"subtitle"`
	Description string     `yaml:"description" validate:"required"`
	Objectives  []string   `yaml:"objectives"`
	Duration    int        `yaml:"duration" validate:"min=0"`
	Difficulty  string     `yaml:"difficulty" validate:"required,oneof=beginner intermediate advanced"`
	ResultTitle string     `yaml:"resultTitle"`
	ResultDesc  string     `yaml:"resultDesc"`
	ShowOffText string     `yaml:"showOffText"`
	VideoURL    *string    `yaml:"videoUrl" validate:"omitempty,url"`
	RepoURL     *string    `yaml:"repoUrl" validate:"omitempty,url"`
	Points      int        `yaml:"points" validate:"min=0"`
	Cards       []Card     `yaml:"cards" validate:"dive"`
	Questions   []Question `yaml:"questions" validate:"dive"`
	Content     any        `yaml:"content"`
}

type Card struct {
	Type    string `yaml:"type" validate:"required,oneof=rescue concept comparison architecture command decision"`
	Icon    string `yaml:"icon" validate:"required"`
	Title   string `yaml:"title" validate:"required"`
	Order   int    `yaml:"order" validate:"required,min=1"`
	Content any    `yaml:"content" validate:"required"`
}

type Question struct {
	ID          string                `yaml:"id" validate:"required"`
	Order       int                   `yaml:"order" validate:"required,min=1"`
	Question    string                `yaml:"question" validate:"required"`
	Options     []learning.QuizOption `yaml:"options" validate:"min=2,dive"`
	CorrectID   string                `yaml:"correctId" validate:"required"`
	Explanation string                `yaml:"explanation"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(questionStructValidation, Question{})
	v.RegisterStructValidation(journeyStructValidation, Journey{})
	return v
}

func questionStructValidation(sl validator.StructLevel) {
	q := sl.Current().Interface().(Question)
	seen := map[string]bool{}
	for _, o := range q.Options {
		if strings.TrimSpace(o.ID) == "" || strings.TrimSpace(o.Text) == "" || seen[o.ID] {
			sl.ReportError(q.Options, "Options", "options", "option", "")
			return
		}
		seen[o.ID] = true
	}
	if !seen[q.CorrectID] {
		sl.ReportError(q.CorrectID, "CorrectID", "correctId", "correct_in_options", "")
	}
}

func journeyStructValidation(sl validator.StructLevel) {
	j := sl.Current().Interface().(Journey)
	orders := map[int]bool{}
	for _, m := range j.Missions {
		if orders[m.Order] {
			sl.ReportError(j.Missions, "Missions", "missions", "unique_order", "")
			return
		}
		orders[m.Order] = true
	}
}

// Default returns the embedded curriculum.
func Default() (*Curriculum, error) {
	raw, err := curriculumFS.ReadFile("curriculum.yaml")
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

func LoadFile(path string) (*Curriculum, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read curriculum %s: %w", path, err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Curriculum, error) {
	var c Curriculum
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("parse curriculum: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks field rules plus the cross-record ones: ids and journey
// orders are unique across the whole file.
func (c *Curriculum) Validate() error {
	if c == nil {
		return fmt.Errorf("curriculum is nil")
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid curriculum: %w", err)
	}
	journeyIDs, journeyOrders := map[uint]bool{}, map[int]bool{}
	missionIDs, questionIDs := map[uint]bool{}, map[string]bool{}
	for _, j := range c.Journeys {
		if journeyIDs[j.ID] || journeyOrders[j.Order] {
			return fmt.Errorf("invalid curriculum: duplicate journey id %d or order %d", j.ID, j.Order)
		}
		journeyIDs[j.ID], journeyOrders[j.Order] = true, true
		if j.RequiredMissions > len(j.Missions) {
			return fmt.Errorf("invalid curriculum: journey %d requires %d missions but defines %d", j.ID, j.RequiredMissions, len(j.Missions))
		}
		for _, m := range j.Missions {
			if missionIDs[m.ID] {
				return fmt.Errorf("invalid curriculum: duplicate mission id %d", m.ID)
			}
			missionIDs[m.ID] = true
			cardOrders := map[int]bool{}
			for _, card := range m.Cards {
				if cardOrders[card.Order] {
					return fmt.Errorf("invalid curriculum: mission %d has two cards at order %d", m.ID, card.Order)
				}
				cardOrders[card.Order] = true
			}
			for _, q := range m.Questions {
				if questionIDs[q.ID] {
					return fmt.Errorf("invalid curriculum: duplicate question id %q", q.ID)
				}
				questionIDs[q.ID] = true
			}
		}
	}
	return nil
}

type Result struct {
	Journeys  int
	Missions  int
	Cards     int
	Questions int
}

// Apply upserts the curriculum by id in one transaction. Running it twice
// leaves the same rows.
func Apply(ctx context.Context, db *gorm.DB, log *logger.Logger, c *Curriculum) (Result, error) {
	if err := c.Validate(); err != nil {
		return Result{}, err
	}
	journeys, missions, cards, questions, err := c.models()
	if err != nil {
		return Result{}, err
	}
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		set := repos.NewSet(tx, log)
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := set.Journey.Upsert(dbc, journeys); err != nil {
			return fmt.Errorf("upsert journeys: %w", err)
		}
		if err := set.Mission.Upsert(dbc, missions); err != nil {
			return fmt.Errorf("upsert missions: %w", err)
		}
		if err := set.Card.Upsert(dbc, cards); err != nil {
			return fmt.Errorf("upsert cards: %w", err)
		}
		if err := set.QuizQuestion.Upsert(dbc, questions); err != nil {
			return fmt.Errorf("upsert questions: %w", err)
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	res := Result{Journeys: len(journeys), Missions: len(missions), Cards: len(cards), Questions: len(questions)}
	if log != nil {
		log.Info("curriculum seeded",
			"journeys", res.Journeys,
			"missions", res.Missions,
			"cards", res.Cards,
			"questions", res.Questions,
		)
	}
	return res, nil
}

func (c *Curriculum) models() ([]*types.Journey, []*types.Mission, []*types.Card, []*types.QuizQuestion, error) {
	var (
		journeys  []*types.Journey
		missions  []*types.Mission
		cards     []*types.Card
		questions []*types.QuizQuestion
	)
	for _, j := range c.Journeys {
		journeys = append(journeys, &types.Journey{
			ID:               j.ID,
			Order:            j.Order,
			Name:             j.Name,
			Title:            j.Title,
			Description:      j.Description,
			Color:            j.Color,
			Icon:             j.Icon,
			RequiredMissions: j.RequiredMissions,
		})
		for _, m := range j.Missions {
			var content datatypes.JSON
			if m.Content != nil {
				raw, err := json.Marshal(m.Content)
				if err != nil {
					return nil, nil, nil, nil, fmt.Errorf("mission %d content: %w", m.ID, err)
				}
				content = datatypes.JSON(raw)
			}
			missions = append(missions, &types.Mission{
				ID:          m.ID,
				JourneyID:   j.ID,
				Order:       m.Order,
				Number:      m.Number,
				Title:       m.Title,
				Subtitle:    m.Subtitle,
				Description: m.Description,
				Objectives:  datatypes.JSONSlice[string](m.Objectives),
				Duration:    m.Duration,
				Difficulty:  learning.Difficulty(m.Difficulty),
				ResultTitle: m.ResultTitle,
				ResultDesc:  m.ResultDesc,
				ShowOffText: m.ShowOffText,
				Content:     content,
				VideoURL:    m.VideoURL,
				RepoURL:     m.RepoURL,
				Points:      m.Points,
			})
			for _, card := range m.Cards {
				raw, err := json.Marshal(card.Content)
				if err != nil {
					return nil, nil, nil, nil, fmt.Errorf("mission %d card %d content: %w", m.ID, card.Order, err)
				}
				cards = append(cards, &types.Card{
					ID:        CardID(m.ID, card.Order),
					MissionID: m.ID,
					Type:      learning.CardType(card.Type),
					Icon:      card.Icon,
					Title:     card.Title,
					Content:   string(raw),
					Order:     card.Order,
				})
			}
			for _, q := range m.Questions {
				var explanation *string
				if e := strings.TrimSpace(q.Explanation); e != "" {
					explanation = &e
				}
				questions = append(questions, &types.QuizQuestion{
					ID:          q.ID,
					MissionID:   m.ID,
					Question:    q.Question,
					Options:     datatypes.JSONSlice[learning.QuizOption](q.Options),
					CorrectID:   q.CorrectID,
					Explanation: explanation,
					Order:       q.Order,
				})
			}
		}
	}
	return journeys, missions, cards, questions, nil
}

// CardID is stable for a (mission, order) pair.
func CardID(missionID uint, order int) uuid.UUID {
	return uuid.NewSHA1(cardNamespace, []byte(fmt.Sprintf("card:%d:%d", missionID, order)))
}
