// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Command rankrectbench builds a rankrect.Index over a synthetic point set
// and times rectangle queries against it. The dataset is either generated
// from a seed or loaded from a previously -dump'd snapshot; either way each
// run is tagged with a fresh UUID so results from concurrent or repeated
// runs can be told apart in saved logs.
package main

import (
	"bytes"
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/crypto/blake2b"
	"sigs.k8s.io/yaml"

	"github.com/google/uuid"

	"github.com/SnellerInc/rankrect"
)

func fatalf(f string, args ...any) {
	fmt.Fprintf(os.Stderr, f+"\n", args...)
	os.Exit(1)
}

// config is the -config YAML profile. Zero values fall back to the flag
// defaults applied in main, so a profile only needs to name what it wants
// to override.
type config struct {
	N              int     `json:"n"`
	Seed           int64   `json:"seed"`
	K              int     `json:"k"`
	Queries        int     `json:"queries"`
	SplitPassesX   int     `json:"splitPassesX"`
	SplitPassesY   int     `json:"splitPassesY"`
	SplitThreshold int     `json:"splitThreshold"`
	Extent         float64 `json:"extent"`
}

func loadConfig(path string) (config, error) {
	var c config
	buf, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(buf, &c); err != nil {
		return c, fmt.Errorf("parsing config: %w", err)
	}
	return c, nil
}

// snapshotName derives a content-addressed file name from the generation
// parameters, so the same (n, seed, extent) always dumps to and loads from
// the same file without the caller having to track one by hand.
func snapshotName(c config) string {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, int64(c.N))
	binary.Write(&buf, binary.LittleEndian, c.Seed)
	binary.Write(&buf, binary.LittleEndian, c.Extent)
	sum := blake2b.Sum256(buf.Bytes())
	return fmt.Sprintf("%x.rrsnap", sum[:8])
}

func generatePoints(c config) []rankrect.Point {
	r := rand.New(rand.NewSource(c.Seed))
	pts := make([]rankrect.Point, c.N)
	ranks := r.Perm(c.N)
	for i := range pts {
		pts[i] = rankrect.Point{
			ID:   int8(i % 127),
			Rank: int32(ranks[i]),
			X:    float32(r.Float64() * c.Extent),
			Y:    float32(r.Float64() * c.Extent),
		}
	}
	return pts
}

func encodePoints(pts []rankrect.Point) []byte {
	buf := make([]byte, 0, len(pts)*13)
	var tmp [4]byte
	for _, p := range pts {
		binary.LittleEndian.PutUint32(tmp[:], uint32(p.Rank))
		buf = append(buf, tmp[:]...)
		buf = append(buf, byte(p.ID))
		binary.LittleEndian.PutUint32(tmp[:], math.Float32bits(p.X))
		buf = append(buf, tmp[:]...)
		binary.LittleEndian.PutUint32(tmp[:], math.Float32bits(p.Y))
		buf = append(buf, tmp[:]...)
	}
	return buf
}

func decodePoints(buf []byte) ([]rankrect.Point, error) {
	const recSize = 13
	if len(buf)%recSize != 0 {
		return nil, fmt.Errorf("snapshot has a truncated record (%d bytes, not a multiple of %d)", len(buf), recSize)
	}
	pts := make([]rankrect.Point, len(buf)/recSize)
	for i := range pts {
		rec := buf[i*recSize : (i+1)*recSize]
		pts[i] = rankrect.Point{
			Rank: int32(binary.LittleEndian.Uint32(rec[0:4])),
			ID:   int8(rec[4]),
			X:    math.Float32frombits(binary.LittleEndian.Uint32(rec[5:9])),
			Y:    math.Float32frombits(binary.LittleEndian.Uint32(rec[9:13])),
		}
	}
	return pts, nil
}

func dumpSnapshot(path string, pts []rankrect.Point) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return err
	}
	if _, err := enc.Write(encodePoints(pts)); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

func loadSnapshot(path string) ([]rankrect.Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, err
	}
	return decodePoints(raw)
}

func main() {
	var (
		configPath = flag.String("config", "", "YAML profile overriding the defaults below")
		n          = flag.Int("n", 200_000, "number of points to generate")
		seed       = flag.Int64("seed", 1, "PRNG seed for generated points")
		k          = flag.Int("k", 20, "K for each query")
		queries    = flag.Int("queries", 200, "number of queries to run")
		splitPX    = flag.Int("split-passes-x", rankrect.DefaultSplitPasses, "bisection passes on the X axis")
		splitPY    = flag.Int("split-passes-y", rankrect.DefaultSplitPasses, "bisection passes on the Y axis")
		splitT     = flag.Int("split-threshold", rankrect.DefaultSplitThreshold, "chunk split threshold")
		extent     = flag.Float64("extent", 1_000_000, "side length of the square the points are generated in")
		dumpDir    = flag.String("dump", "", "directory to write a compressed dataset snapshot to")
		loadDir    = flag.String("load", "", "directory to read a compressed dataset snapshot from, if present")
	)
	flag.Parse()

	c := config{N: *n, Seed: *seed, K: *k, Queries: *queries, SplitPassesX: *splitPX, SplitPassesY: *splitPY, SplitThreshold: *splitT, Extent: *extent}
	if *configPath != "" {
		fromFile, err := loadConfig(*configPath)
		if err != nil {
			fatalf("%s", err)
		}
		if fromFile.N != 0 {
			c.N = fromFile.N
		}
		if fromFile.Seed != 0 {
			c.Seed = fromFile.Seed
		}
		if fromFile.K != 0 {
			c.K = fromFile.K
		}
		if fromFile.Queries != 0 {
			c.Queries = fromFile.Queries
		}
		if fromFile.SplitPassesX != 0 {
			c.SplitPassesX = fromFile.SplitPassesX
		}
		if fromFile.SplitPassesY != 0 {
			c.SplitPassesY = fromFile.SplitPassesY
		}
		if fromFile.SplitThreshold != 0 {
			c.SplitThreshold = fromFile.SplitThreshold
		}
		if fromFile.Extent != 0 {
			c.Extent = fromFile.Extent
		}
	}

	runID := uuid.New()
	fmt.Printf("run %s: n=%d seed=%d k=%d queries=%d\n", runID, c.N, c.Seed, c.K, c.Queries)

	var pts []rankrect.Point
	name := snapshotName(c)
	if *loadDir != "" {
		path := filepath.Join(*loadDir, name)
		if loaded, err := loadSnapshot(path); err == nil {
			pts = loaded
			fmt.Printf("loaded %d points from %s\n", len(pts), path)
		} else if !os.IsNotExist(err) {
			fatalf("loading snapshot: %s", err)
		}
	}
	if pts == nil {
		pts = generatePoints(c)
	}
	if *dumpDir != "" {
		path := filepath.Join(*dumpDir, name)
		if err := os.MkdirAll(*dumpDir, 0o755); err != nil {
			fatalf("creating dump dir: %s", err)
		}
		if err := dumpSnapshot(path, pts); err != nil {
			fatalf("writing snapshot: %s", err)
		}
		fmt.Printf("dumped %d points to %s\n", len(pts), path)
	}

	ix, err := rankrect.New(pts,
		rankrect.WithSplitPasses(c.SplitPassesX, c.SplitPassesY),
		rankrect.WithSplitThreshold(c.SplitThreshold))
	if err != nil {
		fatalf("building index: %s", err)
	}
	defer ix.Close()

	before := ix.Checksum()

	r := rand.New(rand.NewSource(c.Seed + 1))
	out := make([]rankrect.Point, c.K)
	start := time.Now()
	var totalHits int
	for i := 0; i < c.Queries; i++ {
		lx := float32(r.Float64() * c.Extent)
		ly := float32(r.Float64() * c.Extent)
		hx := lx + float32(r.Float64()*c.Extent/10)
		hy := ly + float32(r.Float64()*c.Extent/10)
		rect := rankrect.Rect{LX: lx, LY: ly, HX: hx, HY: hy}
		got, err := ix.Search(rect, c.K, out)
		if err != nil {
			fatalf("query %d: %s", i, err)
		}
		totalHits += got
	}
	elapsed := time.Since(start)

	after := ix.Checksum()
	if before != after {
		fatalf("index mutated during queries: checksum %d before, %d after", before, after)
	}

	fmt.Printf("chunks=%d queries=%d total_hits=%d elapsed=%s avg=%s\n",
		ix.NumChunks(), c.Queries, totalHits, elapsed, elapsed/time.Duration(c.Queries))
}
