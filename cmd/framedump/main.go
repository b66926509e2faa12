package main

import (
	"context"
	"encoding/hex"
	"flag"
	"log"
	"os"
	"time"

	"github.com/robotalks/framed.go/pkg/framed"
	"github.com/robotalks/framed.go/pkg/framed/source"
	fx "github.com/robotalks/framed.go/pkg/framework"
)

var (
	sourceURL  = "-"
	frameSize  = 22
	marker     = "hi"
	markerHex  = ""
	statsEvery time.Duration
)

func init() {
	if val := os.Getenv("FRAMED_URL"); val != "" {
		sourceURL = val
	}
	flag.StringVar(&sourceURL, "url", sourceURL, "Byte source URL (-, file, tcp://, mqtt://, ws://).")
	flag.IntVar(&frameSize, "frame-size", frameSize, "Total frame length in bytes, marker included.")
	flag.StringVar(&marker, "marker", marker, "Marker byte sequence, literal.")
	flag.StringVar(&markerHex, "marker-hex", markerHex, "Marker byte sequence, hex (overrides -marker).")
	flag.DurationVar(&statsEvery, "stats-every", 0, "Interval to log counters, 0 disables.")
}

func markerBytes() ([]byte, error) {
	if markerHex != "" {
		return hex.DecodeString(markerHex)
	}
	return []byte(marker), nil
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	mk, err := markerBytes()
	if err != nil {
		log.Fatalln(err)
	}
	conf := framed.Config{FrameSize: frameSize, Marker: mk}
	if err = conf.Validate(); err != nil {
		log.Fatalln(err)
	}

	buf := framed.NewBuffer()
	src, err := source.Open(sourceURL, buf)
	if err != nil {
		log.Fatalln(err)
	}
	resync := framed.NewResynchronizer(conf, buf)
	resync.Handler = framed.HandleFrameFunc(func(_ context.Context, f framed.Frame) {
		log.Printf("FRAME %s", hex.EncodeToString(f))
	})

	runner := fx.NewRunner().HandleSignals()
	ctx, cancel := context.WithCancel(runner.Context)
	runner.GoWith(ctx, fx.NamedRun("resync", resync))
	runner.Go(fx.NamedRun("source", fx.RunFunc(func(ctx context.Context) error {
		err := src.Run(ctx)
		// source ended: the scanner pops every buffered byte, so wait for
		// it to drain, then stop the pipeline
		for buf.Len() > 0 {
			time.Sleep(10 * time.Millisecond)
		}
		time.Sleep(50 * time.Millisecond)
		cancel()
		return err
	})))
	if statsEvery > 0 {
		runner.GoWith(ctx, fx.NamedRun("stats", fx.RunFunc(func(ctx context.Context) error {
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(statsEvery):
					stats := resync.Stats()
					log.Printf("STATS frames=%d consumed=%d discarded=%d short=%d buffered=%d",
						stats.Frames, stats.Bytes, stats.Discarded, stats.ShortWindows, buf.Len())
				}
			}
		})))
	}
	if err := runner.Wait(); err != nil {
		log.Fatalln(err)
	}
}
