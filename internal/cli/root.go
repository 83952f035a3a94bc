// Package cli wires the commands around the archival core: it owns
// argument parsing, component construction and the translation of
// batch results into terminal panels.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Mewyk/CivitaiMediaHoarder/internal/runctx"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/uuid"
)

// Run dispatches a command line. An interrupt cancels the run context;
// in-flight downloads clean up their partial files before the batch
// stops.
func Run(args []string) error {
	if len(args) == 0 {
		printRootUsage()
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = runctx.WithRunID(ctx, uuid.NewUUID())
	ctx = runctx.WithOperation(ctx, args[0])

	var err error
	switch args[0] {
	case "update":
		err = runUpdate(ctx, args[1:])
	case "add":
		err = runAdd(ctx, args[1:])
	case "remove":
		err = runRemove(args[1:])
	case "verify":
		err = runVerify(ctx, args[1:], verifyAll)
	case "verify-images":
		err = runVerify(ctx, args[1:], verifyImagesOnly)
	case "verify-videos":
		err = runVerify(ctx, args[1:], verifyVideosOnly)
	case "repair":
		err = runRepair(ctx, args[1:])
	case "help", "-h", "--help":
		printRootUsage()
		return nil
	default:
		printRootUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}

	return err
}

func printRootUsage() {
	fmt.Println("civitai-hoarder: archive the media libraries of Civitai creators")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  civitai-hoarder <command> [flags] [creators...]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  update         download new media (all configured creators when none named)")
	fmt.Println("  add            add creators to the list, then download their media")
	fmt.Println("  remove         remove a creator from the list")
	fmt.Println("  verify         check downloaded images and videos for corruption")
	fmt.Println("  verify-images  check images only")
	fmt.Println("  verify-videos  check videos only")
	fmt.Println("  repair         redownload the invalid videos recorded by verify")
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  update:  --auto-purge --no-ignore --save-metadata")
	fmt.Println("  add:     --images=on|off --videos=on|off --other=on|off --save-metadata")
	fmt.Println("  verify*: --repair (fix wrong extensions while scanning) --yes")
	fmt.Println("  repair:  --yes")
	fmt.Println("  all:     --debug")
	fmt.Println()
	fmt.Println("Notes:")
	fmt.Println("  - Creator lists accept space- and comma-separated names")
	fmt.Println("  - Settings come from Configuration.json, the list from CreatorsList.json")
	fmt.Println("  - CIVITAI_API_KEY (optionally via .env) overrides the configured api_key")
}
