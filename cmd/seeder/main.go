package main

import (
	"context"
	"flag"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/poiesic/conceptrag"
	"github.com/poiesic/conceptrag/core"
	"github.com/poiesic/conceptrag/ingestion"
)

// seedDocument is one built-in corpus entry.
type seedDocument struct {
	id       string
	category core.Category
	text     string
}

var corpus = []seedDocument{
	{
		id:       "employee-handbook",
		category: core.CategoryBusiness,
		text: `Work Hours: Monday to Friday, 9:00 AM to 5:00 PM. Core collaboration hours are 10:00 AM to 3:00 PM.
Vacation policy: employees accrue vacation days monthly, up to twenty days per year. Unused vacation carries over for one quarter.
Remote work: staff may work remotely two days per week with manager approval. The office is closed on public holidays.
Expense policy: submit receipts within thirty days. Travel must be booked through the company portal.
Performance reviews happen twice a year, in June and December. Salary adjustments follow the December review.`,
	},
	{
		id:       "product-catalog",
		category: core.CategoryProduct,
		text: `The Model X laptop ships with a two year warranty, 16 GB of memory and a 14 inch display. Price: $1,299.
The Model S tablet includes a stylus and a one year warranty. Battery life is rated at twelve hours.
The Dock Pro connects two external monitors over a single cable and charges laptops up to 100 watts.
All products can be returned within thirty days of purchase in their original packaging.
Replacement parts for discontinued models are available for five years after the last shipment.`,
	},
	{
		id:       "support-faq",
		category: core.CategoryTechnical,
		text: `How do I reset my password? Open account settings, choose security and follow the reset link sent by email.
Why is the server returning errors? Check the status page first, then verify your API key and request quota.
How do I install the desktop client? Download the installer, run it and sign in with your company account.
Can I export my data? Yes, administrators can export all records as CSV from the admin console.
Who do I contact for billing questions? Email the finance team or open a ticket in the support portal.`,
	},
	{
		id:       "clinic-guide",
		category: core.CategoryHealthcare,
		text: `The clinic is open weekdays from 8:00 AM to 6:00 PM. Appointments can be booked online or by phone.
Annual checkups are covered by the standard insurance plan. Bring your insurance card and a list of medications.
Flu vaccinations are available every autumn without an appointment.`,
	},
}

var (
	dbPath  = flag.String("db", "./conceptrag_db", "database directory")
	srcDir  = flag.String("src", "", "directory of text files to ingest instead of the built-in corpus")
	catName = flag.String("category", "", "category hint for files read from -src")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

// documentsFromDir returns an iterator over the regular files in dir.
func documentsFromDir(dir string, category core.Category) (iter.Seq[seedDocument], error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	return func(yield func(seedDocument) bool) {
		for _, entry := range entries {
			if !entry.Type().IsRegular() {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			data, err := os.ReadFile(path)
			if err != nil {
				slog.Warn("skipping unreadable file", "path", path, "err", err)
				continue
			}
			id := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
			if !yield(seedDocument{id: id, category: category, text: string(data)}) {
				return
			}
		}
	}, nil
}

// documentsFromSlice returns an iterator over a slice of documents.
func documentsFromSlice(docs []seedDocument) iter.Seq[seedDocument] {
	return func(yield func(seedDocument) bool) {
		for _, doc := range docs {
			if !yield(doc) {
				return
			}
		}
	}
}

func ingestAll(ctx context.Context, engine *conceptrag.Engine, source iter.Seq[seedDocument]) error {
	for doc := range source {
		stored, err := engine.IngestDocument(ctx, doc.id, doc.text, &ingestion.IngestOptions{Category: doc.category})
		if err != nil {
			return err
		}
		slog.Info("seeded document", "id", stored.Id, "chunks", len(stored.Chunks))
	}
	engine.Wait()
	return nil
}

func main() {
	engine, err := conceptrag.NewEngine(*dbPath)
	if err != nil {
		panic(err)
	}
	defer engine.Close()

	var source iter.Seq[seedDocument]
	if *srcDir != "" {
		category, err := core.ParseCategory(*catName)
		if err != nil {
			panic(err)
		}
		source, err = documentsFromDir(*srcDir, category)
		if err != nil {
			panic(err)
		}
	} else {
		source = documentsFromSlice(corpus)
	}

	if err := ingestAll(context.Background(), engine, source); err != nil {
		panic(err)
	}
}
