// Command waymark manages a tamper-evident visit journal from the
// terminal: recording signed visits, amending their details, managing
// taxonomy tags, and auditing or migrating the journal.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"waymark/internal/integrity"
	"waymark/internal/integrity/keystore"
	"waymark/internal/interchange"
	"waymark/internal/photos"
	"waymark/internal/platform/config"
	"waymark/internal/platform/logger"
	"waymark/internal/platform/postgres"
	"waymark/internal/query"
	taxonomymodels "waymark/internal/taxonomy/models"
	taxonomyservice "waymark/internal/taxonomy/service"
	taxonomystore "waymark/internal/taxonomy/store"
	visitmetrics "waymark/internal/visits/metrics"
	visitmodels "waymark/internal/visits/models"
	"waymark/internal/visits/service"
	"waymark/internal/visits/store"
	id "waymark/pkg/domain"
	"waymark/pkg/platform/journal"
	journalmemory "waymark/pkg/platform/journal/store/memory"
	journalpostgres "waymark/pkg/platform/journal/store/postgres"
	"waymark/pkg/platform/journal/worker"
)

const usage = `usage: waymark <command> [flags]

commands:
  record   record a signed visit at the given coordinates
  amend    set details on an existing visit
  list     browse visits, optionally filtered
  forget   delete one visit
  reset    delete every visit
  verify   audit every stored signature
  tag      manage labels, groups, and members
  export   write the journal as JSON
  import   recreate visits from an exported journal
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err := run(os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "waymark: %v\n", err)
		os.Exit(1)
	}
}

// app is the wired dependency graph for one invocation.
type app struct {
	visits    *service.Service
	taxonomy  *taxonomyservice.Service
	store     store.VisitStore
	publisher *journal.Publisher
}

func run(command string, args []string) error {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		visitStore   store.VisitStore
		taxStore     taxonomystore.TaxonomyStore
		journalStore journal.Store
		db           *sql.DB
	)
	if cfg.DatabaseURL != "" {
		var err error
		db, err = postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			return err
		}
		visitStore = store.NewPostgres(db)
		taxStore = taxonomystore.NewPostgres(db)
		journalStore = journalpostgres.New(db)
	} else {
		visitStore = store.NewInMemory()
		taxStore = taxonomystore.NewInMemory()
		journalStore = journalmemory.NewInMemoryStore()
	}

	var keys keystore.Provider = keystore.NewMemory()
	if cfg.KeystorePath != "" {
		keys = keystore.NewFile(cfg.KeystorePath, cfg.KeystorePassphrase)
	}
	signer, err := integrity.New(keys, integrity.WithLogger(log))
	if err != nil {
		return err
	}

	blobs, err := photos.NewDir(cfg.PhotoDir)
	if err != nil {
		return err
	}

	journalMetrics := journal.NewMetrics()
	inbox := make(chan journal.Event, cfg.JournalBuffer)
	publisher := journal.NewPublisher(inbox,
		journal.WithLogger(log), journal.WithMetrics(journalMetrics))

	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	group, workerCtx := errgroup.WithContext(workerCtx)
	group.Go(func() error {
		return worker.New(journalStore, inbox,
			worker.WithLogger(log), worker.WithMetrics(journalMetrics)).Run(workerCtx)
	})

	visits, err := service.New(visitStore, signer,
		service.WithLogger(log),
		service.WithMetrics(visitmetrics.New()),
		service.WithJournal(publisher),
		service.WithBlobStore(blobs),
		service.WithMaxPhotos(cfg.MaxPhotosPerVisit))
	if err != nil {
		return err
	}

	taxonomy := taxonomyservice.New(taxStore,
		taxonomyservice.WithLogger(log),
		taxonomyservice.WithJournal(publisher))

	application := &app{visits: visits, taxonomy: taxonomy, store: visitStore, publisher: publisher}
	cmdErr := dispatch(ctx, application, command, args)

	// Stop the worker and wait for the drain before reporting.
	stopWorker()
	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Warn("journal worker exited uncleanly", "error", err)
	}
	return cmdErr
}

func dispatch(ctx context.Context, application *app, command string, args []string) error {
	switch command {
	case "record":
		return cmdRecord(ctx, application, args)
	case "amend":
		return cmdAmend(ctx, application, args)
	case "list":
		return cmdList(ctx, application, args)
	case "forget":
		return cmdForget(ctx, application, args)
	case "reset":
		return application.visits.Reset(ctx)
	case "verify":
		return cmdVerify(ctx, application)
	case "tag":
		return cmdTag(ctx, application, args)
	case "export":
		return cmdExport(ctx, application, args)
	case "import":
		return cmdImport(ctx, application, args)
	case "help", "-h", "--help":
		fmt.Print(usage)
		return nil
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func cmdRecord(ctx context.Context, application *app, args []string) error {
	flags := flag.NewFlagSet("record", flag.ContinueOnError)
	lat := flags.Float64("lat", 0, "latitude in decimal degrees")
	lon := flags.Float64("lon", 0, "longitude in decimal degrees")
	accuracy := flags.Float64("accuracy", -1, "horizontal accuracy in meters")
	if err := flags.Parse(args); err != nil {
		return err
	}

	input := service.NewVisitInput{Latitude: *lat, Longitude: *lon}
	if *accuracy >= 0 {
		input.HorizontalAccuracy = accuracy
	}

	aggregate, err := application.visits.Record(ctx, input)
	if err != nil {
		return err
	}
	fmt.Printf("recorded visit %s at %.5f, %.5f\n",
		aggregate.ID, aggregate.Visit.Latitude, aggregate.Visit.Longitude)
	return nil
}

func cmdAmend(ctx context.Context, application *app, args []string) error {
	flags := flag.NewFlagSet("amend", flag.ContinueOnError)
	visitArg := flags.String("visit", "", "visit id")
	title := flags.String("title", "", "title to set")
	comment := flags.String("comment", "", "comment to set")
	if err := flags.Parse(args); err != nil {
		return err
	}

	visitID, err := id.ParseVisitID(*visitArg)
	if err != nil {
		return err
	}

	return application.visits.AmendDetails(ctx, visitID, func(details visitmodels.VisitDetails) (visitmodels.VisitDetails, error) {
		if *title != "" {
			details.Title = *title
		}
		if *comment != "" {
			details.Comment = *comment
		}
		return details, nil
	})
}

func cmdList(ctx context.Context, application *app, args []string) error {
	flags := flag.NewFlagSet("list", flag.ContinueOnError)
	title := flags.String("title", "", "title substring filter")
	fromArg := flags.String("from", "", "start day, YYYY-MM-DD")
	toArg := flags.String("to", "", "last day, YYYY-MM-DD (inclusive)")
	descending := flags.Bool("desc", false, "newest first")
	if err := flags.Parse(args); err != nil {
		return err
	}

	filter := store.Filter{TitleQuery: *title}
	if *fromArg != "" {
		day, err := time.ParseInLocation("2006-01-02", *fromArg, time.Local)
		if err != nil {
			return fmt.Errorf("parse -from: %w", err)
		}
		filter.From = &day
	}
	if *toArg != "" {
		day, err := time.ParseInLocation("2006-01-02", *toArg, time.Local)
		if err != nil {
			return fmt.Errorf("parse -to: %w", err)
		}
		end := day.AddDate(0, 0, 1)
		filter.ToExclusive = &end
	}

	aggregates, err := application.visits.Browse(ctx, filter)
	if err != nil {
		return err
	}

	for _, group := range query.GroupByDate(aggregates, time.Local, !*descending) {
		fmt.Println(group.ID)
		for _, item := range group.Items {
			title := item.Details.Title
			if title == "" {
				title = "(untitled)"
			}
			fmt.Printf("  %s  %s  %.5f, %.5f\n",
				item.Visit.TimestampUTC.In(time.Local).Format("15:04"),
				title, item.Visit.Latitude, item.Visit.Longitude)
		}
	}
	return nil
}

func cmdForget(ctx context.Context, application *app, args []string) error {
	flags := flag.NewFlagSet("forget", flag.ContinueOnError)
	visitArg := flags.String("visit", "", "visit id")
	if err := flags.Parse(args); err != nil {
		return err
	}
	visitID, err := id.ParseVisitID(*visitArg)
	if err != nil {
		return err
	}
	return application.visits.Forget(ctx, visitID)
}

func cmdVerify(ctx context.Context, application *app) error {
	suspects, err := application.visits.Audit(ctx)
	if err != nil {
		return err
	}
	if len(suspects) == 0 {
		fmt.Println("all visits verified")
		return nil
	}
	for _, visitID := range suspects {
		fmt.Printf("SUSPECT %s\n", visitID)
	}
	return fmt.Errorf("%d visit(s) failed verification", len(suspects))
}

func cmdTag(ctx context.Context, application *app, args []string) error {
	flags := flag.NewFlagSet("tag", flag.ContinueOnError)
	kindArg := flags.String("kind", "label", "tag kind: label, group, or member")
	create := flags.String("create", "", "create a tag with this name")
	rename := flags.String("rename", "", "tag id to rename (requires -name)")
	name := flags.String("name", "", "new name for -rename")
	remove := flags.String("delete", "", "tag id to delete")
	if err := flags.Parse(args); err != nil {
		return err
	}

	kind := taxonomymodels.Kind(*kindArg)
	switch {
	case *create != "":
		tag, err := application.taxonomy.Create(ctx, kind, *create)
		if err != nil {
			return err
		}
		fmt.Printf("created %s %s (%s)\n", kind, tag.Name, tag.ID)
		return nil
	case *rename != "":
		tagID, err := uuid.Parse(*rename)
		if err != nil {
			return fmt.Errorf("parse -rename: %w", err)
		}
		tag, err := application.taxonomy.Rename(ctx, kind, tagID, *name)
		if err != nil {
			return err
		}
		fmt.Printf("renamed %s to %s\n", kind, tag.Name)
		return nil
	case *remove != "":
		tagID, err := uuid.Parse(*remove)
		if err != nil {
			return fmt.Errorf("parse -delete: %w", err)
		}
		return application.taxonomy.Delete(ctx, kind, tagID)
	default:
		tags, err := application.taxonomy.List(ctx, kind)
		if err != nil {
			return err
		}
		for _, tag := range tags {
			fmt.Printf("%s  %s\n", tag.ID, tag.Name)
		}
		return nil
	}
}

func cmdExport(ctx context.Context, application *app, args []string) error {
	flags := flag.NewFlagSet("export", flag.ContinueOnError)
	out := flags.String("o", "", "output file (default stdout)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if *out == "" {
		if err := interchange.ExportTo(ctx, application.store, os.Stdout); err != nil {
			return err
		}
		application.publisher.Emit(ctx, journal.Event{Action: journal.ActionJournalExported})
		return nil
	}
	file, err := os.Create(*out)
	if err != nil {
		return err
	}
	if err := interchange.ExportTo(ctx, application.store, file); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	application.publisher.Emit(ctx, journal.Event{Action: journal.ActionJournalExported, Detail: *out})
	return nil
}

func cmdImport(ctx context.Context, application *app, args []string) error {
	flags := flag.NewFlagSet("import", flag.ContinueOnError)
	in := flags.String("i", "", "input file")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return errors.New("import requires -i <file>")
	}

	data, err := os.ReadFile(*in)
	if err != nil {
		return err
	}
	created, err := interchange.Import(ctx, application.store, data)
	if err != nil {
		return err
	}
	application.publisher.Emit(ctx, journal.Event{
		Action: journal.ActionJournalImported,
		Detail: fmt.Sprintf("%d visits from %s", created, *in),
	})
	fmt.Printf("imported %d visit(s)\n", created)
	return nil
}
