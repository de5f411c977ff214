package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/joaodebarro/backend/internal/domain/finance"
	"github.com/joaodebarro/backend/internal/domain/shared"
	"github.com/joaodebarro/backend/internal/domain/shared/valueobject"
	"github.com/joaodebarro/backend/internal/infrastructure/apiclient"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const maxFakeCount = 10000

var fakeServices = []string{
	"Manutencao preventiva",
	"Consultoria tributaria",
	"Instalacao eletrica",
	"Suporte tecnico mensal",
	"Desenvolvimento de sistema",
	"Treinamento de equipe",
}

func newFakeCmd(app *seedApp) *cobra.Command {
	var (
		count int
		seed  uint64
		month string
	)

	cmd := &cobra.Command{
		Use:   "fake",
		Short: "Generate synthetic receivables",
		Long: `Fake generates receivables with due dates spread over a month, a mix of
payment methods, and open, partially received and settled entries.`,
		Example: `  seed fake --count 200 --month 2026-03 --batch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 || count > maxFakeCount {
				return fmt.Errorf("count must be between 1 and %d", maxFakeCount)
			}
			today := shared.Today(app.clock)
			ref := finance.MonthOf(today)
			if month != "" {
				m, err := finance.ParseMonthRef(month)
				if err != nil {
					return fmt.Errorf("invalid month: %w", err)
				}
				ref = m
			}

			inputs := generateReceivables(gofakeit.New(seed), count, ref, today)
			sum := &Summary{Source: "fake:" + ref.String(), DryRun: app.dryRun, Total: count}
			items := make([]item, 0, count)
			for i, in := range inputs {
				if err := in.Validate(); err != nil {
					sum.fail(Failure{Row: i + 1, Kind: apiclient.KindValidation, Message: err.Error()})
					continue
				}
				items = append(items, item{row: i + 1, input: in})
			}
			sum.Valid = len(items)
			app.log.Info("receivables generated", zap.String("month", ref.String()), zap.Int("count", count))

			if !app.dryRun {
				s := &submitter{client: app.client, log: app.log, batch: app.batch, batchSize: app.batchSize}
				if err := s.submit(cmd.Context(), items, sum); err != nil {
					return err
				}
			}
			return finish(cmd.OutOrStdout(), app.format, sum)
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 50, "Number of receivables to generate")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Random seed; 0 picks a random one")
	cmd.Flags().StringVar(&month, "month", "", "Month of the due dates as YYYY-MM; defaults to the current month")
	return cmd
}

// generateReceivables builds n receivables due within month. Entries due before
// today may be settled or partially received; receipts are never dated after
// today.
func generateReceivables(f *gofakeit.Faker, n int, month finance.MonthRef, today time.Time) []finance.EntryInput {
	first, _ := month.Window()
	last := first.AddDate(0, 1, -1)
	methods := finance.AllPaymentMethods()

	out := make([]finance.EntryInput, n)
	for i := range out {
		due := shared.DateOnly(f.DateRange(first, last))
		service := due.AddDate(0, 0, -f.Number(0, 30))
		gross := decimal.NewFromFloat(f.Float64Range(150, 12000)).Round(valueobject.Scale)
		iss := gross.Mul(finance.DefaultIssRate).Div(decimal.NewFromInt(100)).Round(valueobject.Scale)
		net := gross.Sub(iss)

		in := finance.EntryInput{
			Kind:          finance.KindReceivable,
			Counterparty:  truncate(f.Company(), finance.MaxCounterpartyLength),
			Description:   f.RandomString(fakeServices),
			ServiceDate:   shared.FormatDate(service),
			DueDate:       shared.FormatDate(due),
			PaymentMethod: methods[f.Number(0, len(methods)-1)].String(),
			Currency:      string(valueobject.DefaultCurrency),
			GrossAmount:   gross,
			IssAmount:     iss,
		}
		if f.Bool() {
			in.ServiceOrderNumber = f.Numerify("OS-#####")
		}
		if f.Number(1, 3) == 1 {
			in.InvoiceNumber = f.Numerify("######")
			in.InvoiceIssueDate = shared.FormatDate(due.AddDate(0, 0, -2))
		}

		if !due.After(today) {
			switch f.Number(0, 2) {
			case 1:
				in.Settled = net
			case 2:
				in.Settled = net.Div(decimal.NewFromInt(2)).Round(valueobject.Scale)
			}
			if in.Settled.IsPositive() {
				in.PaymentDate = shared.FormatDate(due)
			}
		}
		out[i] = in
	}
	return out
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if r := []rune(s); len(r) > max {
		return string(r[:max])
	}
	return s
}
