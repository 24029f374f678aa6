// Command hive is a CLI interface to the content store.
//
// The store is described by a JSON config file
// whose "type" selects a registered ledger backend
// and whose other fields configure it:
//
//	{"type": "sqlite3", "conn": "hive.db", "agent": "alice"}
//
// An optional "service" object configures the content service:
//
//	{"service": {"consistency": "fast", "comparator": "timestamp_then_address", "fetch_limit": 16}}
//
// Records are printed to stdout as JSON, one per line.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/bobg/subcmd"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/hummearth/hive"
	"github.com/hummearth/hive/content"
	"github.com/hummearth/hive/resolve"
	"github.com/hummearth/hive/store"
	_ "github.com/hummearth/hive/store/badger"
	_ "github.com/hummearth/hive/store/gcs"
	"github.com/hummearth/hive/store/logging"
	_ "github.com/hummearth/hive/store/lru"
	_ "github.com/hummearth/hive/store/mem"
	_ "github.com/hummearth/hive/store/pg"
	_ "github.com/hummearth/hive/store/rpc"
	_ "github.com/hummearth/hive/store/sqlite3"
	_ "github.com/hummearth/hive/store/transform"
)

type maincmd struct {
	l    hive.Ledger
	s    *content.Service
	opts []content.Option

	in  io.Reader
	out io.Writer
}

func main() {
	var (
		config  = flag.String("config", "hive.json", "path to config file")
		verbose = flag.Bool("v", false, "log every ledger call")
	)
	flag.Parse()

	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if *config == "" {
		logrus.Fatal("Config value not set")
	}

	conf, err := readConfig(*config)
	if err != nil {
		logrus.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c, err := newMaincmd(ctx, conf, *verbose)
	if err != nil {
		logrus.Fatalf("Config file %s: %s", *config, err)
	}
	c.in, c.out = os.Stdin, os.Stdout

	err = subcmd.Run(ctx, c, flag.Args())
	if err != nil {
		logrus.Fatal(err)
	}
}

func readConfig(filename string) (map[string]interface{}, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "opening config file %s", filename)
	}
	defer f.Close()

	var conf map[string]interface{}
	err = json.NewDecoder(f).Decode(&conf)
	return conf, errors.Wrapf(err, "decoding config file %s", filename)
}

// newMaincmd creates the configured ledger and the service over it.
// The caller sets in and out.
func newMaincmd(ctx context.Context, conf map[string]interface{}, verbose bool) (maincmd, error) {
	typ, ok := conf["type"].(string)
	if !ok {
		return maincmd{}, errors.New("missing `type` parameter")
	}

	l, err := store.Create(ctx, typ, conf)
	if err != nil {
		return maincmd{}, errors.Wrapf(err, "creating %s-type store", typ)
	}
	if verbose {
		l = logging.New(l, nil)
	}

	opts, err := serviceOptions(conf)
	if err != nil {
		return maincmd{}, err
	}

	return maincmd{l: l, s: content.New(l, opts...), opts: opts}, nil
}

func serviceOptions(conf map[string]interface{}) ([]content.Option, error) {
	sconf, _ := conf["service"].(map[string]interface{})

	opts := []content.Option{content.WithLogger(logrus.StandardLogger())}

	switch c, _ := sconf["consistency"].(string); c {
	case "", "strong":
	case "fast":
		opts = append(opts, content.WithConsistency(content.Fast))
	default:
		return nil, errors.Errorf("unknown consistency %q", c)
	}

	switch c, _ := sconf["comparator"].(string); c {
	case "", "timestamp":
	case "timestamp_then_address":
		opts = append(opts, content.WithComparator(resolve.ByTimestampThenAddress))
	default:
		return nil, errors.Errorf("unknown comparator %q", c)
	}

	if n, ok := sconf["fetch_limit"].(float64); ok {
		opts = append(opts, content.WithFetchLimit(int(n)))
	}
	if cached, _ := sconf["cached"].(bool); cached {
		opts = append(opts, content.WithFreshness(hive.Cached))
	}

	return opts, nil
}

func (c maincmd) Subcmds() subcmd.Map {
	return subcmd.Commands(
		"create", c.create, subcmd.Params(
			"id", subcmd.String, "", "content id (default: random)",
			"hive", subcmd.String, "", "hive id",
			"type", subcmd.String, "", "content type",
			"owner", subcmd.String, "", "owner entity id (default: this agent)",
			"admin", subcmd.String, "", "comma-separated admin entity ids",
			"writer", subcmd.String, "", "comma-separated writer entity ids",
			"reader", subcmd.String, "", "comma-separated reader entity ids",
			"tag", subcmd.String, "", "comma-separated dynamic links",
			"key", subcmd.String, "", "revision key",
			"data", subcmd.String, "", "payload (default: read stdin)",
		),
		"update", c.update, subcmd.Params(
			"prev", subcmd.String, "", "ref of revision to update",
			"tag", subcmd.String, "", "comma-separated dynamic links",
			"data", subcmd.String, "", "payload (default: read stdin)",
		),
		"delete", c.delete, nil,
		"get", c.get, subcmd.Params(
			"ref", subcmd.String, "", "ref of original revision",
			"fast", subcmd.Bool, false, "follow the latest-revision pointer instead of resolving",
		),
		"get-by-id", c.getByID, subcmd.Params(
			"hive", subcmd.String, "", "hive id",
			"id", subcmd.String, "", "content id",
		),
		"by-author", c.byAuthor, subcmd.Params(
			"author", subcmd.String, "", "author (default: this agent)",
			"type", subcmd.String, "", "content type (default: all)",
		),
		"by-hive", c.byHive, subcmd.Params(
			"hive", subcmd.String, "", "hive id",
			"type", subcmd.String, "", "content type",
		),
		"by-id", c.byID, subcmd.Params(
			"hive", subcmd.String, "", "hive id",
			"id", subcmd.String, "", "content id",
		),
		"by-tag", c.byTag, subcmd.Params(
			"hive", subcmd.String, "", "hive id",
			"type", subcmd.String, "", "content type",
			"tag", subcmd.String, "", "dynamic link",
		),
		"by-acl", c.byACL, subcmd.Params(
			"hive", subcmd.String, "", "hive id",
			"type", subcmd.String, "", "content type",
			"role", subcmd.String, "Reader", "Owner, Admin, Writer, or Reader",
			"entity", subcmd.String, "", "entity id",
		),
		"by-time", c.byTime, subcmd.Params(
			"author", subcmd.String, "", "author (default: this agent)",
			"type", subcmd.String, "", "content type",
			"start", subcmd.String, "", "earliest time (default: unbounded)",
			"end", subcmd.String, "", "latest time (default: unbounded)",
			"limit", subcmd.Int, 0, "maximum number of records (default: all)",
		),
		"serve", c.serve, subcmd.Params(
			"addr", subcmd.String, ":2968", "listen address",
		),
	)
}

var layouts = []string{
	time.RFC3339Nano, time.RFC3339, time.ANSIC, time.UnixDate,
}

func parsetime(s string) (time.Time, error) {
	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err == nil { // sic
			return t, nil
		}
	}
	return time.Time{}, errors.New("could not parse time")
}

func (c maincmd) print(recs ...*hive.Record) error {
	enc := json.NewEncoder(c.out)
	for _, rec := range recs {
		if err := enc.Encode(rec); err != nil {
			return errors.Wrap(err, "writing record")
		}
	}
	return nil
}
