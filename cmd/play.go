package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/hangman/internal/domain/game"
	"github.com/okian/hangman/internal/domain/wordbank"
)

type playFlags struct {
	catalogue string
	rounds    int
	seed      int64
}

func newPlayCmd() *cobra.Command {
	flags := &playFlags{}
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play one session in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := wordbank.NewLoader(flags.catalogue).Load(cmd.Context())
			if err != nil {
				return err
			}
			seed := flags.seed
			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			opts := []game.Option{game.WithRand(rand.New(rand.NewSource(seed)))} //nolint:gosec // word choice is not security sensitive
			if flags.rounds > 0 {
				opts = append(opts, game.WithTotalRounds(flags.rounds))
			}
			engine, err := game.New(c, opts...)
			if err != nil {
				return err
			}
			_, err = play(cmd.Context(), engine, cmd.InOrStdin(), cmd.OutOrStdout())
			return err
		},
	}
	cmd.Flags().StringVar(&flags.catalogue, "catalogue", "", "YAML word catalogue; empty uses the built-in one")
	cmd.Flags().IntVar(&flags.rounds, "rounds", 0, "rounds per session; 0 uses the default")
	cmd.Flags().Int64Var(&flags.seed, "seed", 0, "random seed for word choice; 0 picks one")
	return cmd
}

// play runs one session reading guesses from in. Typing "quit" or closing
// in ends the session early.
func play(ctx context.Context, engine *game.Engine, in io.Reader, out io.Writer) (game.Summary, error) {
	s, err := engine.Start()
	if err != nil {
		return game.Summary{}, err
	}
	lines := bufio.NewScanner(in)

	for s.Phase != game.Finished {
		if err := ctx.Err(); err != nil {
			return s.Summary(), err
		}
		switch s.Phase {
		case game.InRound:
			printRound(out, engine, s)
			fmt.Fprint(out, "guess> ")
		case game.AwaitingAdvance:
			printResult(out, s)
			fmt.Fprint(out, "press enter to continue> ")
		}

		if !lines.Scan() {
			fmt.Fprintln(out)
			return s.Summary(), lines.Err()
		}
		input := strings.TrimSpace(lines.Text())
		if strings.EqualFold(input, "quit") {
			return s.Summary(), nil
		}

		if s.Phase == game.AwaitingAdvance {
			s, err = engine.Advance(s)
			if err != nil {
				return s.Summary(), err
			}
			continue
		}

		next, err := engine.Guess(s, input)
		switch {
		case errors.Is(err, game.ErrInvalidLetter):
			fmt.Fprintln(out, "type a single letter A-Z")
			continue
		case err != nil:
			return s.Summary(), err
		}
		if game.Classify(s, next) == game.OutcomeDuplicate {
			fmt.Fprintf(out, "already tried %s\n", strings.ToUpper(input))
		}
		s = next
	}

	sum := s.Summary()
	fmt.Fprintf(out, "\nfinished: %d points, %d/%d correct, best streak %d\n",
		sum.Score, sum.CorrectCount, sum.TotalRounds, sum.BestStreak)
	return sum, nil
}

func printRound(out io.Writer, engine *game.Engine, s game.Session) {
	r := s.Round
	fmt.Fprintf(out, "\nround %d/%d  score %d  lives %d\n", s.RoundIndex, engine.TotalRounds(), s.Score, r.Remaining())
	fmt.Fprintf(out, "%s: %s\n", r.Entry.Category, r.Entry.Hint)
	fmt.Fprintf(out, "  %s\n", spaced(r.Masked()))
	if r.Guessed.Len() > 0 {
		fmt.Fprintf(out, "tried: %s\n", r.Guessed)
	}
}

func printResult(out io.Writer, s game.Session) {
	r := s.Round
	if r.Status == game.Won {
		fmt.Fprintf(out, "\ncorrect! %s  +%d points\n", r.Entry.Word, r.Points)
		return
	}
	fmt.Fprintf(out, "\nout of lives. the answer was %s\n", r.Entry.Word)
}

func spaced(s string) string {
	return strings.Join(strings.Split(s, ""), " ")
}
