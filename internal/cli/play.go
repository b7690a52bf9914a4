package cli

import (
	"fmt"
	"io"
	"log"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"careerquest-service/internal/app"
	"careerquest-service/internal/config"
	"careerquest-service/internal/domain"
	"careerquest-service/internal/infra/memory"
	"careerquest-service/internal/tui"
)

// NewPlayCmd runs one player's session in the terminal.
func NewPlayCmd(configPath *string) *cobra.Command {
	var (
		name       string
		learner    string
		difficulty string
		lang       string
		set        int
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a quiz round in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := domain.ParseDifficulty(difficulty)
			if err != nil {
				return err
			}
			if err := domain.ValidateSet(set); err != nil {
				return err
			}
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			// Log lines would corrupt the alternate screen.
			log.SetOutput(io.Discard)

			ctx := cmd.Context()
			b, err := connectBackends(ctx, cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			service, err := newQuizService(cfg, b, memory.NewSessionStore())
			if err != nil {
				return err
			}
			bridge := tui.NewBridge()
			player := service.NewPlayer(name, bridge.Hooks(), app.WithLearnerKey(learner))
			defer service.Release(player.ID())

			model := tui.NewModel(ctx, player, bridge, service.Domains(), tui.Options{
				Difficulty: d,
				Language:   lang,
				Set:        set,
			})
			program := tea.NewProgram(model, tea.WithAltScreen())
			if _, err := program.Run(); err != nil {
				return fmt.Errorf("failed to run TUI: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name used in the greeting")
	cmd.Flags().StringVar(&learner, "player", "", "learner key that progress and unlocks are stored under")
	cmd.Flags().StringVar(&difficulty, "difficulty", string(domain.DifficultyBasic), "basic, intermediate or expert")
	cmd.Flags().StringVar(&lang, "lang", domain.DefaultLanguage, "language code for generated questions")
	cmd.Flags().IntVar(&set, "set", 1, "set number 1-5")
	return cmd
}
