package main

import (
	"fmt"
	"os"

	"github.com/joaodebarro/backend/internal/infrastructure/apiclient"
	csvimport "github.com/joaodebarro/backend/internal/infrastructure/import"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newImportCmd(app *seedApp) *cobra.Command {
	var file, delimiter string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import receivables from a spreadsheet export",
		Long: `Import reads a CSV export with the columns Cliente, Servico, NumeroOS, NF,
FormaPagamento, ValorBruto, ISS, Liquido, Recebido, Vencimento, DataServico and
DataEmissao. ValorBruto and Vencimento are required; the others may be absent.

Rows that cannot be mapped are reported with their line number and never posted.`,
		Example: `  # Check a file without touching the API
  seed import --file receivables.csv --dry-run

  # Post through the batch endpoint and print a YAML summary
  seed import --file receivables.csv --batch --format yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("open %s: %w", file, err)
			}
			defer f.Close()

			opts := []csvimport.MapperOption{csvimport.WithClock(app.clock)}
			switch delimiter {
			case "":
			case ",", ";", "\t":
				opts = append(opts, csvimport.WithParserOptions(csvimport.WithDelimiter(rune(delimiter[0]))))
			default:
				return fmt.Errorf("unsupported delimiter %q", delimiter)
			}

			result, err := csvimport.ParseReceivables(f, opts...)
			if err != nil {
				return fmt.Errorf("read %s: %w", file, err)
			}

			sum := &Summary{Source: file, DryRun: app.dryRun, Total: result.TotalRows, Valid: result.Valid()}
			// a row may carry several errors; Failed counts rows
			for _, re := range result.Errors.List() {
				sum.Failures = append(sum.Failures, Failure{Row: re.Row, Kind: apiclient.KindValidation, Code: re.Code, Column: re.Column, Message: re.Message})
			}
			sum.Failed = result.TotalRows - result.Valid()
			if result.Errors.Truncated() {
				app.log.Warn("row errors truncated",
					zap.Int("reported", len(result.Errors.List())),
					zap.Int("total", result.Errors.Total()))
			}
			app.log.Info("file mapped",
				zap.String("file", file),
				zap.Int("rows", result.TotalRows),
				zap.Int("valid", result.Valid()))

			if !app.dryRun {
				items := make([]item, len(result.Entries))
				for i, e := range result.Entries {
					items[i] = item{row: e.Line, input: e.Input}
				}
				s := &submitter{client: app.client, log: app.log, batch: app.batch, batchSize: app.batchSize}
				if err := s.submit(cmd.Context(), items, sum); err != nil {
					return err
				}
			}
			return finish(cmd.OutOrStdout(), app.format, sum)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "CSV file to import")
	cmd.Flags().StringVar(&delimiter, "delimiter", "", "Field delimiter; detected from the header when empty")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
