package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/Mewyk/CivitaiMediaHoarder/internal/repair"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/result"
)

func runRepair(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("repair", flag.ContinueOnError)
	yes := fs.Bool("yes", false, "assume yes on confirmation prompts")
	debug := fs.Bool("debug", false, "enable debug logging")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := newApp(*debug)
	if err != nil {
		return err
	}
	defer a.close()

	attempted, succeeded, err := a.repairer.RepairVideos(ctx, repair.ReportFileName, *yes)
	if errors.Is(err, repair.ErrNoReport) {
		a.printer.PrintMuted("No invalid videos report found. Run verify first.")
		return nil
	}
	if err != nil {
		return err
	}

	a.printer.PrintSummary(repairSummary(attempted, succeeded, fileExists(repair.ReportFileName)))

	if succeeded < attempted {
		return fmt.Errorf("%d of %d repairs failed", attempted-succeeded, attempted)
	}
	return nil
}

// repairSummary scores the whole repair pass as one unit: it either
// cleared the report or it did not.
func repairSummary(attempted, succeeded int, reportKept bool) result.RepairSummary {
	s := result.RepairSummary{
		FilesRemoved:      attempted,
		FilesRedownloaded: succeeded,
		ReportKept:        reportKept,
	}
	if attempted > 0 {
		s.Total = 1
		if succeeded == attempted {
			s.Successful = 1
		} else {
			s.Failed = 1
		}
	}
	return s
}
