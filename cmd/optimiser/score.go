package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	chatservice "github.com/jatinverma85276/Credit-Card-Optimiser/internal/chat/service"
	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/domain"
	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/reward"
)

func newScoreCmd(e *env) *cobra.Command {
	var cardsFile, merchant, amount, category string

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a purchase against a portfolio file without any backend",
		Example: `  optimiser score --cards cards.json --merchant swiggy --amount 450
  optimiser score --cards cards.json --merchant amazon --amount 2,499 --category online_shopping`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := os.ReadFile(cardsFile)
			if err != nil {
				return fmt.Errorf("read cards: %w", err)
			}
			cards, err := decodeCards(raw)
			if err != nil {
				return fmt.Errorf("parse %s: %w", cardsFile, err)
			}
			amt, err := decimal.NewFromString(strings.ReplaceAll(amount, ",", ""))
			if err != nil {
				return fmt.Errorf("invalid --amount %q", amount)
			}
			tx, err := domain.NewTransaction(merchant, amt, strings.ToLower(strings.TrimSpace(category)))
			if err != nil {
				return err
			}

			rec, err := reward.NewScorer(e.logger).Recommend(&tx, cards)
			if err != nil {
				return err
			}
			return renderScore(cmd.OutOrStdout(), tx, rec)
		},
	}

	cmd.Flags().StringVar(&cardsFile, "cards", "", "JSON file with a card array or {\"cards\": [...]}")
	cmd.Flags().StringVar(&merchant, "merchant", "", "merchant name")
	cmd.Flags().StringVar(&amount, "amount", "0", "purchase amount in rupees")
	cmd.Flags().StringVar(&category, "category", "", "purchase category")
	_ = cmd.MarkFlagRequired("cards")
	_ = cmd.MarkFlagRequired("merchant")
	return cmd
}

// decodeCards accepts a bare JSON array of cards or an object wrapping one
// under "cards".
func decodeCards(raw []byte) ([]domain.Card, error) {
	raw = bytes.TrimSpace(raw)
	var cards []domain.Card
	if len(raw) > 0 && raw[0] == '[' {
		if err := json.Unmarshal(raw, &cards); err != nil {
			return nil, err
		}
		return cards, nil
	}

	var wrapped struct {
		Cards []domain.Card `json:"cards"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Cards, nil
}

func renderScore(w io.Writer, tx domain.Transaction, rec *domain.Recommendation) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CARD\tCATEGORY\tMULTIPLIER\tPOINTS")
	for _, e := range rec.Breakdown {
		if e.Excluded {
			fmt.Fprintf(tw, "%s\t-\t-\texcluded\n", e.CardName)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%g\t%.2f\n", e.CardName, e.AppliedCategory, e.AppliedMultiplier, e.Points)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	if rec.BestCard == nil {
		_, err := fmt.Fprintln(w, "No eligible card for this purchase.")
		return err
	}
	_, err := fmt.Fprintln(w, chatservice.TemplateExplanation(tx, rec))
	return err
}
