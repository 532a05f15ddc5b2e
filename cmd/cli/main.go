package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/tensorplex-labs/reprompt/internal/config"
	"github.com/tensorplex-labs/reprompt/internal/kami"
	"github.com/tensorplex-labs/reprompt/internal/scoring"
	chainutils "github.com/tensorplex-labs/reprompt/internal/utils/chain_utils"
	"github.com/tensorplex-labs/reprompt/internal/utils/redis"
	"github.com/tensorplex-labs/reprompt/internal/validator"
)

const (
	choicePlotScores = iota
	choiceSetScoresWeight
	choiceRecentRounds
)

const recentRoundsShown = 10

type model struct {
	choices       []string
	cursor        int
	selectedIndex int // single selection index; -1 until chosen
	kamiClient    kami.KamiInterface
	cfg           *config.AppConfig
}

func initialModel() *model {
	_ = godotenv.Load()
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	k, err := kami.NewKami(&cfg.KamiEnvConfig)
	if err != nil {
		fmt.Printf("Error initializing Kami: %v\n", err)
		os.Exit(1)
	}

	return &model{
		choices:       []string{"Plot local scores", "Set scores weight", "Show recent rounds"},
		cursor:        0,
		selectedIndex: -1,
		kamiClient:    k,
		cfg:           cfg,
	}
}

func (m *model) loadScores() (validator.ScoresData, error) {
	store, err := validator.LoadScoreStore(m.cfg.ScoresFile)
	if err != nil {
		return validator.ScoresData{}, fmt.Errorf("failed to read scores file: %w", err)
	}
	return store.Snapshot(), nil
}

func (m *model) plotScores() {
	scores, err := m.loadScores()
	if err != nil {
		fmt.Println(err)
		return
	}
	scoring.PlotMinerScoresTerminal(os.Stdout, scores.Scores, fmt.Sprintf("Scores at step %d", scores.Step))
}

func (m *model) setScoresWeight() {
	fmt.Println("Setting scores weight")
	scores, err := m.loadScores()
	if err != nil {
		fmt.Println(err)
		return
	}

	convertedUids, convertedWeights := chainutils.EmitWeights(scores.Scores)
	if len(convertedUids) == 0 {
		fmt.Println("All scores are zero, nothing to set")
		return
	}

	res, err := m.kamiClient.SetWeights(kami.SetWeightsParams{
		Netuid:     m.cfg.Netuid,
		Dests:      convertedUids,
		Weights:    convertedWeights,
		VersionKey: m.cfg.WeightsVersion,
	})
	if err != nil {
		fmt.Printf("Error setting weights: %v\n", err)
		return
	}

	fmt.Printf("Successfully set weights with hash: %s\n", res.Data)
}

func (m *model) showRecentRounds() {
	if m.cfg.RedisHost == "" {
		fmt.Println("REDIS_HOST is not set; rounds are only mirrored to redis")
		return
	}
	r, err := redis.NewRedis(&m.cfg.RedisEnvConfig)
	if err != nil {
		fmt.Printf("Error connecting to redis: %v\n", err)
		return
	}
	defer r.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	rounds, err := validator.RecentRounds(ctx, r, recentRoundsShown)
	if err != nil {
		fmt.Printf("Error reading rounds: %v\n", err)
		return
	}
	if len(rounds) == 0 {
		fmt.Println("No rounds recorded yet")
		return
	}

	for _, round := range rounds {
		best, bestUID := 0.0, -1
		for _, mr := range round.Miners {
			if mr.Reward > best {
				best, bestUID = mr.Reward, mr.UID
			}
		}
		fmt.Printf("step %-5d block %-8d %s  miners %-3d best uid %d (%.4f)  took %.1fs\n",
			round.Step, round.Block, round.StartedAt.Format(time.RFC3339), len(round.Miners), bestUID, best, round.Duration)
	}
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) { //nolint
	switch msg := msg.(type) { //nolint
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}

		case "down", "j":
			if m.cursor < len(m.choices)-1 {
				m.cursor++
			}

		case "enter":
			m.selectedIndex = m.cursor
			switch m.selectedIndex {
			case choicePlotScores:
				m.plotScores()
			case choiceSetScoresWeight:
				m.setScoresWeight()
			case choiceRecentRounds:
				m.showRecentRounds()
			default:
				fmt.Println("Unknown selection")
			}

			return m, tea.Quit
		}
	}

	return m, nil
}

func (m *model) View() string {
	s := "Select an option:\n\n"

	for i, choice := range m.choices {
		cursor := " "
		if m.cursor == i {
			cursor = ">"
		}
		s += fmt.Sprintf("%s %s\n", cursor, choice)
	}

	s += "\nPress q to quit.\n"
	return s
}

func (m *model) Init() tea.Cmd {
	return nil
}

func main() {
	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Alas, there's been an error: %v", err)
		os.Exit(1)
	}
}
