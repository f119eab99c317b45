package engine

import (
	"database/sql"
	"strings"

	"github.com/robert-crandall/journal-app/internal/llm"
	"github.com/robert-crandall/journal-app/internal/storage"
)

type Service struct {
	db       *sql.DB
	curve    LevelCurve
	analyzer llm.Analyzer

	users   *storage.UserRepo
	stats   *storage.StatRepo
	grants  *storage.GrantRepo
	tasks   *storage.TaskRepo
	quests  *storage.QuestRepo
	journal *storage.JournalRepo
	family  *storage.FamilyRepo
}

func NewService(db *sql.DB, analyzer llm.Analyzer, curve LevelCurve) *Service {
	if curve.Base <= 0 {
		curve = DefaultLevelCurve()
	}
	return &Service{
		db:       db,
		curve:    curve,
		analyzer: analyzer,
		users:    storage.NewUserRepo(db),
		stats:    storage.NewStatRepo(db),
		grants:   storage.NewGrantRepo(db),
		tasks:    storage.NewTaskRepo(db),
		quests:   storage.NewQuestRepo(db),
		journal:  storage.NewJournalRepo(db),
		family:   storage.NewFamilyRepo(db),
	}
}

func (s *Service) Curve() LevelCurve                { return s.curve }
func (s *Service) UserRepo() *storage.UserRepo      { return s.users }
func (s *Service) StatRepo() *storage.StatRepo      { return s.stats }
func (s *Service) GrantRepo() *storage.GrantRepo    { return s.grants }
func (s *Service) TaskRepo() *storage.TaskRepo      { return s.tasks }
func (s *Service) QuestRepo() *storage.QuestRepo    { return s.quests }
func (s *Service) JournalRepo() *storage.JournalRepo { return s.journal }
func (s *Service) FamilyRepo() *storage.FamilyRepo  { return s.family }

func normalizeTitle(title string) (string, error) {
	t := strings.TrimSpace(title)
	if t == "" {
		return "", ValidationError{Msg: "title is required"}
	}
	return t, nil
}
