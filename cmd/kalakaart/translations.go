package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-kalakaart/components/dashboard"
)

type translationsCmd struct {
	Export exportTranslationsCmd `cmd:"" help:"Write every translation bundle as YAML."`
	Check  checkTranslationsCmd  `cmd:"" help:"Verify the embedded locale files are complete."`
}

type exportTranslationsCmd struct {
	Out string `short:"o" type:"path" help:"Output file (defaults to stdout)."`
}

func (cmd *exportTranslationsCmd) Run(_ context.Context, rt *runtime) error {
	table, err := dashboard.NewEmbeddedTranslationTable(rt.cfg.Locale.Default)
	if err != nil {
		return err
	}
	if cmd.Out == "" {
		return exportTranslations(os.Stdout, table)
	}
	f, err := os.Create(cmd.Out)
	if err != nil {
		return fmt.Errorf("kalakaart: create %s: %w", cmd.Out, err)
	}
	if err := exportTranslations(f, table); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// translationsDocument is the YAML layout of an export.
type translationsDocument struct {
	Default   string                        `yaml:"default"`
	Languages []string                      `yaml:"languages"`
	Bundles   []dashboard.TranslationBundle `yaml:"bundles"`
}

func exportTranslations(out io.Writer, table *dashboard.TranslationTable) error {
	bundles := table.Bundles()
	codes := make([]string, 0, len(bundles))
	for code := range bundles {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	doc := translationsDocument{
		Default:   table.Default(),
		Languages: table.Codes(),
	}
	for _, code := range codes {
		doc.Bundles = append(doc.Bundles, bundles[code])
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("kalakaart: encode translations: %w", err)
	}
	return enc.Close()
}

type checkTranslationsCmd struct{}

func (cmd *checkTranslationsCmd) Run(_ context.Context, rt *runtime) error {
	table, err := dashboard.NewEmbeddedTranslationTable(rt.cfg.Locale.Default)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "%d languages ok (default %s)\n", len(table.Codes()), table.Default())
	return nil
}
