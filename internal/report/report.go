package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/contactkeval/option-pricer/internal/surface"
)

func WriteJSON(surf *surface.Surface, outdir string) error {
	b, err := json.MarshalIndent(surf, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outdir, "surface.json"), b, 0644)
}

func WriteCSV(surf *surface.Surface, outdir string) error {
	f, err := os.Create(filepath.Join(outdir, "surface.csv"))
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	defer w.Flush()
	headers := []string{"underlying", "as_of", "expiry", "strike", "type", "mid", "vol", "residual", "iterations", "converged"}
	if err := w.Write(headers); err != nil {
		return err
	}
	for _, pt := range surf.Points {
		row := []string{
			surf.Underlying,
			surf.AsOf.Format("2006-01-02"),
			pt.Expiry.Format("2006-01-02"),
			fmt.Sprintf("%.2f", pt.Strike),
			pt.Type,
			fmt.Sprintf("%.4f", pt.Mid),
			fmt.Sprintf("%.6f", pt.Vol),
			fmt.Sprintf("%.6g", pt.Residual),
			fmt.Sprintf("%d", pt.Iterations),
			fmt.Sprintf("%t", pt.Converged),
		}
		_ = w.Write(row)
	}
	return nil
}
