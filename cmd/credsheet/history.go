package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/careernest/credsheet/internal/database"
	"github.com/careernest/credsheet/internal/report"
	"github.com/spf13/cobra"
)

// shortIDLen is the id prefix shown in listings; any unique prefix is
// accepted by "history show".
const shortIDLen = 8

// NewHistoryCmd creates the history command and its subcommands.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect previously generated handouts",
		Long: `History reads the local database of generated handouts.

Only metadata is stored: organization, student and page counts, format,
output path and the SHA3-256 digest of the document. Names and passwords
are never recorded.

Examples:
  # List the latest generations
  credsheet history list

  # List generations of one organization as JSON
  credsheet history list --organization "Springfield High" --json

  # Show one generation by id prefix
  credsheet history show 3f2a9c1e

  # Check whether a handout file was produced by credsheet
  credsheet history verify handout.pdf`,
	}

	cmd.PersistentFlags().String("db-dir", "",
		"History database directory (default: XDG data directory)")
	cmd.PersistentFlags().BoolP("json", "j", false,
		"Output JSON")

	cmd.AddCommand(newHistoryListCmd())
	cmd.AddCommand(newHistoryShowCmd())
	cmd.AddCommand(newHistoryOrgsCmd())
	cmd.AddCommand(newHistoryVerifyCmd())

	return cmd
}

func newHistoryListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List generated handouts, newest first",
		Args:  cobra.NoArgs,
		RunE:  runHistoryList,
	}
	cmd.Flags().StringP("organization", "O", "", "Only list this organization")
	cmd.Flags().IntP("limit", "n", 20, "Maximum number of entries (0 for all)")
	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one generation",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryShow,
	}
}

func newHistoryOrgsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "orgs",
		Short: "List organizations with generation counts",
		Args:  cobra.NoArgs,
		RunE:  runHistoryOrgs,
	}
}

func newHistoryVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <file>",
		Short: "Find the generation that produced a file",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryVerify,
	}
}

// openHistory opens the history database named by the configuration.
// The database must already exist.
func openHistory(cmd *cobra.Command) (*database.HistoryDB, bool, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, false, err
	}
	if err := overrideString(cmd, "db-dir", &cfg.DBDir); err != nil {
		return nil, false, err
	}
	setupLogger(cfg)

	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return nil, false, err
	}

	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	db, err := database.Open(cfg.DBDir, opts)
	if err != nil {
		return nil, false, fmt.Errorf("failed to open database (run 'credsheet generate' first): %w", err)
	}
	return db, asJSON, nil
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	db, asJSON, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	var opts database.ListOptions
	if opts.Organization, err = cmd.Flags().GetString("organization"); err != nil {
		return err
	}
	if opts.Limit, err = cmd.Flags().GetInt("limit"); err != nil {
		return err
	}

	gens, err := db.ListGenerations(cmd.Context(), opts)
	if err != nil {
		return fmt.Errorf("failed to list generations: %w", err)
	}

	out := cmd.OutOrStdout()
	if asJSON {
		return writeJSON(out, gens)
	}

	if len(gens) == 0 {
		fmt.Fprintln(out, "No generations found.")
		fmt.Fprintln(out, "\nUse 'credsheet generate <file>' to render a handout.")
		return nil
	}

	fmt.Fprintf(out, "Generations (%d):\n\n", len(gens))
	fmt.Fprintf(out, "  %-8s  %-19s  %-8s  %8s  %5s  %s\n", "ID", "Date", "Format", "Students", "Pages", "Organization")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 72))
	for _, g := range gens {
		fmt.Fprintf(out, "  %-8s  %-19s  %-8s  %8d  %5d  %s\n",
			shortID(g.ID),
			g.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			g.Format,
			g.RecordCount,
			g.PageCount,
			g.OrganizationName,
		)
	}
	fmt.Fprintln(out, "\nUse 'credsheet history show <id>' to see details.")
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	db, asJSON, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	g, err := db.GetGeneration(cmd.Context(), args[0])
	if err != nil {
		if errors.Is(err, database.ErrAmbiguousID) {
			return fmt.Errorf("%w: use a longer id prefix", err)
		}
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		return writeJSON(out, g)
	}
	printGeneration(out, g)
	return nil
}

func runHistoryOrgs(cmd *cobra.Command, _ []string) error {
	db, asJSON, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	orgs, err := db.ListOrganizations(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list organizations: %w", err)
	}

	out := cmd.OutOrStdout()
	if asJSON {
		return writeJSON(out, orgs)
	}

	if len(orgs) == 0 {
		fmt.Fprintln(out, "No organizations found in the database.")
		return nil
	}

	fmt.Fprintf(out, "Organizations (%d):\n\n", len(orgs))
	for _, o := range orgs {
		fmt.Fprintf(out, "  • %s: %d generations, %d students, last %s\n",
			o.Name, o.Generations, o.Students,
			o.LastGeneratedAt.Local().Format("2006-01-02 15:04:05"))
	}
	return nil
}

func runHistoryVerify(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	db, asJSON, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	digest := report.Digest(data)
	gens, err := db.FindByDigest(cmd.Context(), digest)
	if err != nil {
		return fmt.Errorf("failed to search history: %w", err)
	}
	if len(gens) == 0 {
		return fmt.Errorf("%s (sha3-256 %s) was not generated by credsheet on this machine", args[0], digest)
	}

	out := cmd.OutOrStdout()
	if asJSON {
		return writeJSON(out, gens)
	}
	fmt.Fprintf(out, "%s matches %d generation(s):\n\n", args[0], len(gens))
	for _, g := range gens {
		printGeneration(out, g)
		fmt.Fprintln(out)
	}

	if bytes.HasPrefix(data, []byte("%PDF-")) {
		printPDFMetadata(out, report.ReadPDFMetadata(data))
	}
	return nil
}

// printPDFMetadata prints the document information of a handout and warns
// about metadata that identifies its producer.
func printPDFMetadata(out io.Writer, m report.PDFMetadata) {
	fmt.Fprintln(out, "PDF metadata:")
	fmt.Fprintf(out, "  Title:    %s\n", m.Title)
	fmt.Fprintf(out, "  Subject:  %s\n", m.Subject)
	fmt.Fprintf(out, "  Creator:  %s\n", m.Creator)
	fmt.Fprintf(out, "  Producer: %s\n", m.Producer)
	for _, leak := range m.IdentityLeaks() {
		fmt.Fprintf(out, "  Warning: identifying metadata (%s)\n", leak)
	}
}

func printGeneration(out io.Writer, g *database.Generation) {
	fmt.Fprintf(out, "ID:           %s\n", g.ID)
	fmt.Fprintf(out, "Created:      %s\n", g.CreatedAt.Local().Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(out, "Organization: %s\n", g.OrganizationName)
	fmt.Fprintf(out, "Students:     %d\n", g.RecordCount)
	if g.PageCount > 0 {
		fmt.Fprintf(out, "Pages:        %d\n", g.PageCount)
	}
	fmt.Fprintf(out, "Format:       %s (%d bytes)\n", g.Format, g.ByteSize)
	fmt.Fprintf(out, "SHA3-256:     %s\n", g.Digest)
	if g.Source != "" {
		fmt.Fprintf(out, "Source:       %s\n", g.Source)
	}
	if g.OutputPath != "" {
		fmt.Fprintf(out, "Output:       %s\n", g.OutputPath)
	}
	if len(g.Issues) > 0 {
		fmt.Fprintf(out, "Issues:\n")
		for _, issue := range g.Issues {
			fmt.Fprintf(out, "  - %s\n", issue)
		}
	}
}

func writeJSON(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}
