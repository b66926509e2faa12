package main

import (
	"encoding/hex"
	"flag"
	"log"

	"github.com/robotalks/framed.go/pkg/cli/sh"
	"github.com/robotalks/framed.go/pkg/framed"
)

//go-build: CGO_ENABLED=0

var (
	frameSize = 22
	marker    = "hi"
	markerHex = ""
)

func init() {
	flag.IntVar(&frameSize, "frame-size", frameSize, "Total frame length in bytes, marker included.")
	flag.StringVar(&marker, "marker", marker, "Marker byte sequence, literal.")
	flag.StringVar(&markerHex, "marker-hex", markerHex, "Marker byte sequence, hex (overrides -marker).")
}

func main() {
	flag.Parse()

	mk := []byte(marker)
	if markerHex != "" {
		var err error
		if mk, err = hex.DecodeString(markerHex); err != nil {
			log.Fatalln(err)
		}
	}
	conf := framed.Config{FrameSize: frameSize, Marker: mk}
	if err := conf.Validate(); err != nil {
		log.Fatalln(err)
	}
	sh.New(conf).Run(flag.Args()...)
}
