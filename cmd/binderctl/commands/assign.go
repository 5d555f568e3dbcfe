package commands

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"casbinder/internal/binder/models"
)

var assignFile string

var assignCmd = &cobra.Command{
	Use:   "assign [email=universal_id ...]",
	Short: "Link existing accounts to universal ids",
	Long: `Assign universal ids to the accounts matching each email.

Pairs come from arguments, from a two-column CSV file, or both. Emails with
no matching account are skipped. The first failing row stops the run; rows
before it stay committed.

Examples:
  binderctl assign jdoe@example.edu=U-1001
  binderctl assign --file mapping.csv -o json`,
	RunE: runAssign,
}

func init() {
	assignCmd.Flags().StringVarP(&assignFile, "file", "f", "", "CSV file of email,universal_id rows (header optional)")
}

func runAssign(cmd *cobra.Command, args []string) error {
	mapping, err := parsePairs(args)
	if err != nil {
		return err
	}
	if assignFile != "" {
		f, err := os.Open(assignFile)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := readMappingCSV(f, mapping); err != nil {
			return fmt.Errorf("%s: %w", assignFile, err)
		}
	}
	if len(mapping) == 0 {
		return errors.New("nothing to assign: pass email=universal_id pairs or --file")
	}

	ctx := cmd.Context()
	a, err := buildApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.Admin.AssignUniversalIDs(ctx, models.SystemPrincipal, mapping)
	if report != nil {
		if perr := printReport(cmd.OutOrStdout(), report); perr != nil && err == nil {
			err = perr
		}
	}
	return err
}

func parsePairs(args []string) (map[string]string, error) {
	mapping := make(map[string]string, len(args))
	for _, arg := range args {
		email, uid, ok := strings.Cut(arg, "=")
		email, uid = strings.TrimSpace(email), strings.TrimSpace(uid)
		if !ok || email == "" || uid == "" {
			return nil, fmt.Errorf("invalid pair %q, want email=universal_id", arg)
		}
		mapping[email] = uid
	}
	return mapping, nil
}

func readMappingCSV(r io.Reader, mapping map[string]string) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2
	reader.TrimLeadingSpace = true
	line := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		line++
		if line == 1 && strings.EqualFold(record[0], "email") {
			continue
		}
		if record[0] == "" || record[1] == "" {
			return fmt.Errorf("line %d: email and universal id are required", line)
		}
		mapping[record[0]] = record[1]
	}
}
