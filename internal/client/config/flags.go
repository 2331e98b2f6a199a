package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/lmsauth/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-n string   comma separated NATS server URLs
//	-r string   Redis URL of the session cache
//	-i int      online check interval in seconds (default from Config)
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-n", "-r", "-i"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.Var(flagx.ListValue{Items: &cfg.NatsURLs}, "n", "NATS server URLs, comma separated")
	fs.StringVar(&cfg.RedisURL, "r", cfg.RedisURL, "session cache Redis URL")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "i" {
			cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
		}
	})
}
