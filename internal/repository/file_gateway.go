package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"path/filepath"

	"github.com/Eursukkul/railconnect/internal/codec"
	"github.com/Eursukkul/railconnect/internal/models"
	"github.com/spf13/afero"
)

const recordFileMode = 0o644

type fileGateway struct {
	fs           afero.Fs
	trainsPath   string
	bookingsPath string
}

// NewFileGateway stores the trains and bookings records as two JSON files.
func NewFileGateway(fsys afero.Fs, trainsPath, bookingsPath string) Gateway {
	return &fileGateway{fs: fsys, trainsPath: trainsPath, bookingsPath: bookingsPath}
}

func (g *fileGateway) Load(ctx context.Context) (*models.Snapshot, error) {
	snap := &models.Snapshot{}

	trains, err := g.readTrains()
	seeded := err != nil
	if seeded {
		log.Printf("[FileGateway] trains record %s unavailable, seeding defaults: %v", g.trainsPath, err)
		trains = models.DefaultTrains()
	}
	snap.Trains = trains

	passengers, waiting, err := g.readBookings()
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Printf("[FileGateway] bookings record %s unreadable, starting empty: %v", g.bookingsPath, err)
		}
		passengers, waiting = []models.Passenger{}, []models.Passenger{}
	}
	snap.Passengers = passengers
	snap.Waiting = waiting

	if seeded {
		if err := g.Save(ctx, snap); err != nil {
			return snap, fmt.Errorf("persist seeded trains: %w", err)
		}
	}

	log.Printf("[FileGateway] loaded %d trains, %d passengers, %d waiting",
		len(snap.Trains), len(snap.Passengers), len(snap.Waiting))
	return snap, nil
}

// Save rewrites both records. Each file is replaced atomically; the pair is not.
func (g *fileGateway) Save(ctx context.Context, snap *models.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	trains, err := codec.EncodeTrains(snap.Trains)
	if err != nil {
		return err
	}
	bookings, err := codec.EncodeBookings(snap.Passengers, snap.Waiting)
	if err != nil {
		return err
	}

	if err := g.writeAtomic(g.trainsPath, trains); err != nil {
		return fmt.Errorf("write trains record: %w", err)
	}
	if err := g.writeAtomic(g.bookingsPath, bookings); err != nil {
		return fmt.Errorf("write bookings record: %w", err)
	}
	return nil
}

func (g *fileGateway) readTrains() ([]models.Train, error) {
	data, err := afero.ReadFile(g.fs, g.trainsPath)
	if err != nil {
		return nil, err
	}
	return codec.DecodeTrains(data)
}

func (g *fileGateway) readBookings() ([]models.Passenger, []models.Passenger, error) {
	data, err := afero.ReadFile(g.fs, g.bookingsPath)
	if err != nil {
		return nil, nil, err
	}
	return codec.DecodeBookings(data)
}

// writeAtomic writes to a temp file in the target directory and renames it over the
// target, so readers see either the old or the new content.
func (g *fileGateway) writeAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := g.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	tmp, err := afero.TempFile(g.fs, dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = g.fs.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = g.fs.Chmod(tmpName, recordFileMode); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = g.fs.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
