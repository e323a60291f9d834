package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/kailas-cloud/veccoll/internal/config"
	domcol "github.com/kailas-cloud/veccoll/internal/domain/collection"
	reportuc "github.com/kailas-cloud/veccoll/internal/usecase/report"
)

func syncCommand(c *cli.Context) error {
	cfg, err := loadSettings(c)
	if err != nil {
		return err
	}
	path := collectionsConfigPath(c, cfg)
	doc, err := domcol.LoadDocument(path)
	if err != nil {
		return fmt.Errorf("load collections config: %w", err)
	}

	ctx, rt, err := newRuntime(c, cfg)
	if err != nil {
		return err
	}
	defer rt.close()

	w := c.App.Writer
	if doc.Len() == 0 {
		fmt.Fprintf(w, "No collections configured in %s. Nothing to do.\n", path)
		return nil
	}

	res, err := rt.collections.Sync(ctx, doc.Specs(), c.Bool("rebuild"))
	for _, o := range res.Outcomes {
		if o.Err != nil {
			fmt.Fprintf(w, "Collection '%s' failed after %d records: %v\n", o.Name, o.Rows, o.Err)
			continue
		}
		fmt.Fprintf(w, "Collection '%s' now has %d records.\n", o.Name, o.Rows)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "\n=== Collections summary ===")
	if err := printReport(ctx, w, rt, false); err != nil {
		return err
	}

	if failed := res.Failed(); len(failed) > 0 {
		return fmt.Errorf("%d of %d collection(s) failed", len(failed), len(res.Outcomes))
	}
	return nil
}

func deleteCommand(c *cli.Context) error {
	name := strings.TrimSpace(c.Args().First())
	all := c.Bool("all")
	if !all && name == "" {
		return fmt.Errorf("please provide a collection name or use --all")
	}

	ctx, rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	defer rt.close()

	w := c.App.Writer
	if all {
		deleted, err := rt.collections.DeleteAll(ctx)
		for _, n := range deleted {
			fmt.Fprintf(w, "Deleted collection '%s'.\n", n)
		}
		if err != nil {
			return err
		}
		if len(deleted) == 0 {
			fmt.Fprintln(w, "No collections to delete.")
		}
		return nil
	}

	deleted, err := rt.collections.Delete(ctx, name)
	if err != nil {
		return err
	}
	if !deleted {
		fmt.Fprintf(w, "Collection '%s' not found.\n", name)
		return nil
	}
	fmt.Fprintf(w, "Deleted collection '%s'.\n", name)
	return nil
}

func queryCommand(c *cli.Context) error {
	text := strings.TrimSpace(c.Args().First())
	if text == "" {
		return fmt.Errorf("query text cannot be empty")
	}
	limit := c.Int("limit")
	if limit < 1 {
		return fmt.Errorf("limit must be at least 1")
	}

	selector := c.String("collection")
	if c.IsSet("collection") && strings.TrimSpace(selector) == "" {
		return fmt.Errorf("collection name cannot be empty")
	}

	cfg, err := loadSettings(c)
	if err != nil {
		return err
	}
	if selector == "" {
		selector, err = defaultCollection(collectionsConfigPath(c, cfg))
		if err != nil {
			return err
		}
	}

	ctx, rt, err := newRuntime(c, cfg)
	if err != nil {
		return err
	}
	defer rt.close()

	name, matches, err := rt.collections.Query(ctx, selector, text, limit)
	if err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Collection: %s\n", name)
	fmt.Fprintf(w, "Query: %s\n", text)
	for i, m := range matches {
		cardName := m.Metadata["name"]
		if cardName == "" {
			cardName = "unknown"
		}
		fmt.Fprintf(w, "%d. id=%s name=%s distance=%g\n", i+1, m.ID, cardName, m.Distance)
	}
	return nil
}

func reportCommand(c *cli.Context) error {
	ctx, rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	defer rt.close()

	return printReport(ctx, c.App.Writer, rt, c.Bool("json"))
}

func printReport(ctx context.Context, w io.Writer, rt *runtime, asJSON bool) error {
	rows, err := rt.report.Report(ctx)
	if err != nil {
		return err
	}

	if asJSON {
		data, err := reportuc.FormatJSON(rows)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))
		return nil
	}

	root, _ := os.Getwd()
	fmt.Fprintln(w, reportuc.Format(rows, root))
	return nil
}

// collectionsConfigPath returns --config, else the configured collections path.
func collectionsConfigPath(c *cli.Context, cfg config.Config) string {
	if p := c.String("config"); p != "" {
		return p
	}
	return cfg.Collections.ConfigPath
}

// defaultCollection returns the name of the first collection in the config document.
func defaultCollection(path string) (string, error) {
	doc, err := domcol.LoadDocument(path)
	if err != nil {
		return "", fmt.Errorf("no collection specified and config %s is unusable: %w", filepath.Clean(path), err)
	}
	spec, ok := doc.First()
	if !ok {
		return "", fmt.Errorf("no collection specified and no default found in %s, pass --collection", path)
	}
	return spec.Name()
}
