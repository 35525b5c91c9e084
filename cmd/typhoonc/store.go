package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/tidwall/gjson"

	"github.com/typhoon/typhoon-go/persist"
)

// backendFlags are the flags shared by every command that opens a
// persistence backend
type backendFlags struct {
	backend   *string
	path      *string
	redisAddr *string
	prefix    *string
	codecName *string
}

func defineBackendFlags(fs *flag.FlagSet) *backendFlags {
	return &backendFlags{
		backend:   fs.String("backend", "dir", "Storage backend: dir, bolt, redis"),
		path:      fs.String("path", ".typhoon", "Directory (dir) or database file (bolt)"),
		redisAddr: fs.String("redis-addr", "localhost:6379", "Redis address (redis)"),
		prefix:    fs.String("prefix", "typhoon:", "Key prefix (redis)"),
		codecName: fs.String("codec", "json", "Value encoding: json or yaml"),
	}
}

func (f *backendFlags) open() (persist.Backend, error) {
	switch *f.backend {
	case "dir":
		return persist.NewDir(*f.path)
	case "bolt":
		return persist.NewBolt(*f.path)
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: *f.redisAddr})
		return persist.NewRedis(client, *f.prefix), nil
	default:
		return nil, fmt.Errorf("unsupported backend: %s", *f.backend)
	}
}

func (f *backendFlags) codec() (persist.Codec, error) {
	c := persist.CodecByName(*f.codecName)
	if c == nil {
		return nil, fmt.Errorf("unsupported codec: %s", *f.codecName)
	}
	return c, nil
}

func newStoreCommand() *Command {
	storeCmd := &Command{
		Name:        "store",
		Description: "Inspect persisted store values: list, get, set, delete",
		FlagSet:     flag.NewFlagSet("store", flag.ExitOnError),
	}

	bf := defineBackendFlags(storeCmd.FlagSet)
	query := storeCmd.FlagSet.String("query", "", "gjson path applied to JSON values on get")
	timeout := storeCmd.FlagSet.Duration("timeout", 5*time.Second, "Backend operation timeout")

	storeCmd.Run = func() error {
		args := storeCmd.FlagSet.Args()
		if len(args) < 1 {
			return fmt.Errorf("usage: typhoonc store [flags] list|get|set|delete [key] [value]")
		}

		backend, err := bf.open()
		if err != nil {
			return err
		}
		defer backend.Close()

		ctx, cancel := context.WithTimeout(context.Background(), *timeout)
		defer cancel()

		switch args[0] {
		case "list":
			return storeList(ctx, backend)
		case "get":
			if len(args) != 2 {
				return fmt.Errorf("get takes a key")
			}
			return storeGet(ctx, backend, args[1], *query)
		case "set":
			if len(args) != 3 {
				return fmt.Errorf("set takes a key and a value")
			}
			codec, err := bf.codec()
			if err != nil {
				return err
			}
			return storeSet(ctx, backend, codec, args[1], args[2])
		case "delete":
			if len(args) != 2 {
				return fmt.Errorf("delete takes a key")
			}
			if err := backend.Delete(ctx, args[1]); err != nil {
				return err
			}
			logf("Deleted %s", args[1])
			return nil
		default:
			return fmt.Errorf("unknown store operation: %s", args[0])
		}
	}

	return storeCmd
}

func storeList(ctx context.Context, backend persist.Backend) error {
	keys, err := backend.Keys(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tSIZE")
	for _, key := range keys {
		data, err := backend.Get(ctx, key)
		if err != nil {
			return fmt.Errorf("reading %s: %w", key, err)
		}
		fmt.Fprintf(w, "%s\t%d\n", key, len(data))
	}
	return w.Flush()
}

func storeGet(ctx context.Context, backend persist.Backend, key, query string) error {
	data, err := backend.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("reading %s: %w", key, err)
	}
	if query == "" {
		fmt.Println(string(data))
		return nil
	}
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("value of %s is not JSON; -query needs the json codec", key)
	}
	result := gjson.GetBytes(data, query)
	if !result.Exists() {
		return fmt.Errorf("query %q matched nothing in %s", query, key)
	}
	fmt.Println(result.String())
	return nil
}

// storeSet writes a raw value. JSON input is re-encoded with the chosen codec
// so the stored bytes decode the same way persist.New reads them.
func storeSet(ctx context.Context, backend persist.Backend, codec persist.Codec, key, raw string) error {
	var data []byte
	switch {
	case gjson.Valid(raw):
		encoded, err := codec.Marshal(gjson.Parse(raw).Value())
		if err != nil {
			return err
		}
		data = encoded
	case codec.Name() == "json":
		return fmt.Errorf("value for %s is not valid JSON", key)
	default:
		data = []byte(raw)
	}
	if err := backend.Put(ctx, key, data); err != nil {
		return err
	}
	logf("Stored %s (%d bytes)", key, len(data))
	return nil
}
