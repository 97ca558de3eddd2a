package repository

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/okian/hydrophys/internal/domain/model"
	"github.com/okian/hydrophys/internal/domain/profile"
	. "github.com/smartystreets/goconvey/convey"
)

func sampleProfile(name string) profile.Named {
	return profile.Named{
		Name:     name,
		Latitude: 45,
		Samples: profile.Profile{
			{Z: 0, T: 15, S: 35},
			{Z: 50, T: 12, S: 35.1},
			{Z: 200, T: 6, S: 34.8},
		},
	}
}

// profileStoreContract exercises behavior every ProfileStore must share.
func profileStoreContract(newStore func() ProfileStore) {
	ctx := context.Background()
	store := newStore()
	Reset(func() { store.Close() })

	Convey("When storing a profile without an ID", func() {
		stored, err := store.Put(ctx, sampleProfile("coastal"))

		Convey("Then an ID should be assigned and the profile retrievable", func() {
			So(err, ShouldBeNil)
			So(stored.ID, ShouldNotBeEmpty)
			So(store.Count(ctx), ShouldEqual, 1)

			got, err := store.Get(ctx, stored.ID)
			So(err, ShouldBeNil)
			So(got.Name, ShouldEqual, "coastal")
			So(got.Latitude, ShouldEqual, 45)
			So(got.Samples, ShouldResemble, sampleProfile("").Samples)
		})
	})

	Convey("When replacing a profile under the same ID", func() {
		p := sampleProfile("first")
		p.ID = "station-7"
		_, err := store.Put(ctx, p)
		So(err, ShouldBeNil)

		p.Name = "second"
		p.Samples = p.Samples[:2]
		_, err = store.Put(ctx, p)
		So(err, ShouldBeNil)

		Convey("Then only the latest version should remain", func() {
			got, err := store.Get(ctx, "station-7")
			So(err, ShouldBeNil)
			So(got.Name, ShouldEqual, "second")
			So(len(got.Samples), ShouldEqual, 2)
			So(store.Count(ctx), ShouldEqual, 1)
		})
	})

	Convey("When listing several profiles", func() {
		for _, id := range []string{"c", "a", "b"} {
			p := sampleProfile("p-" + id)
			p.ID = id
			_, err := store.Put(ctx, p)
			So(err, ShouldBeNil)
		}

		Convey("Then they should come back ordered by ID with samples", func() {
			all, err := store.List(ctx)
			So(err, ShouldBeNil)
			So(len(all), ShouldEqual, 3)
			So(all[0].ID, ShouldEqual, "a")
			So(all[2].ID, ShouldEqual, "c")
			So(len(all[1].Samples), ShouldEqual, 3)
		})
	})

	Convey("When deleting a profile", func() {
		stored, err := store.Put(ctx, sampleProfile("gone"))
		So(err, ShouldBeNil)
		So(store.Delete(ctx, stored.ID), ShouldBeNil)

		Convey("Then it should no longer be found", func() {
			_, err := store.Get(ctx, stored.ID)
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
			So(store.Count(ctx), ShouldEqual, 0)
			So(errors.Is(store.Delete(ctx, stored.ID), ErrNotFound), ShouldBeTrue)
		})
	})

	Convey("When the ID is malformed", func() {
		p := sampleProfile("bad")
		p.ID = "has space"
		_, err := store.Put(ctx, p)

		Convey("Then it should be rejected", func() {
			So(errors.Is(err, ErrInvalidID), ShouldBeTrue)
		})
	})

	Convey("When a returned profile is modified", func() {
		p := sampleProfile("orig")
		p.ID = "iso"
		_, err := store.Put(ctx, p)
		So(err, ShouldBeNil)
		got, _ := store.Get(ctx, "iso")
		got.Samples[0].T = -99

		Convey("Then the stored copy should be unaffected", func() {
			again, _ := store.Get(ctx, "iso")
			So(again.Samples[0].T, ShouldEqual, 15)
		})
	})
}

func TestMemoryProfileStore(t *testing.T) {
	Convey("Given a memory profile store", t, func() {
		profileStoreContract(func() ProfileStore { return NewMemoryProfileStore() })
	})

	Convey("Given concurrent writers and readers", t, func() {
		ctx := context.Background()
		store := NewMemoryProfileStore()
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				for j := 0; j < 25; j++ {
					p := sampleProfile("c")
					p.ID = fmt.Sprintf("w%d-%d", i, j)
					_, _ = store.Put(ctx, p)
					_, _ = store.List(ctx)
				}
			}(i)
		}
		wg.Wait()

		Convey("Then every write should be visible", func() {
			So(store.Count(ctx), ShouldEqual, 200)
		})
	})
}

func TestSQLiteProfileStore(t *testing.T) {
	Convey("Given a SQLite profile store", t, func() {
		dir := t.TempDir()
		n := 0
		profileStoreContract(func() ProfileStore {
			n++
			s, err := NewSQLiteProfileStore(context.Background(), filepath.Join(dir, fmt.Sprintf("profiles-%d.db", n)))
			So(err, ShouldBeNil)
			return s
		})
	})

	Convey("Given a SQLite database that is reopened", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "nested", "profiles.db")

		s, err := NewSQLiteProfileStore(ctx, path, WithBusyTimeout(time.Second))
		So(err, ShouldBeNil)
		p := sampleProfile("persisted")
		p.ID = "keep"
		_, err = s.Put(ctx, p)
		So(err, ShouldBeNil)
		So(s.Close(), ShouldBeNil)

		Convey("Then stored profiles should survive", func() {
			s2, err := NewSQLiteProfileStore(ctx, path)
			So(err, ShouldBeNil)
			defer s2.Close()
			So(s2.Path(), ShouldEqual, path)

			got, err := s2.Get(ctx, "keep")
			So(err, ShouldBeNil)
			So(got.Name, ShouldEqual, "persisted")
			So(got.Samples, ShouldResemble, p.Samples)
		})
	})
}

func TestMemoryResultStore(t *testing.T) {
	Convey("Given a result store with a controllable clock", t, func() {
		ctx := context.Background()
		now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
		store := NewMemoryResultStore(ctx,
			WithRetention(time.Minute),
			WithPruneInterval(time.Hour),
			WithClock(func() time.Time { return now }),
		)
		Reset(func() { store.Close() })

		Convey("When results of a batch are stored", func() {
			for i := 0; i < 3; i++ {
				err := store.Put(ctx, model.Result{
					JobID:     fmt.Sprintf("job-%d", i),
					BatchID:   "batch-1",
					Status:    model.StatusQueued,
					Submitted: now,
				})
				So(err, ShouldBeNil)
			}

			Convey("Then they should be listed in submission order", func() {
				rs, err := store.Batch(ctx, "batch-1")
				So(err, ShouldBeNil)
				So(len(rs), ShouldEqual, 3)
				So(rs[0].JobID, ShouldEqual, "job-0")
				So(rs[2].JobID, ShouldEqual, "job-2")
			})

			Convey("And a job is updated in place", func() {
				err := store.Put(ctx, model.Result{JobID: "job-1", BatchID: "batch-1", Status: model.StatusDone, Value: 42, Completed: now})
				So(err, ShouldBeNil)

				Convey("Then the batch should not grow", func() {
					rs, _ := store.Batch(ctx, "batch-1")
					So(len(rs), ShouldEqual, 3)
					So(rs[1].Status, ShouldEqual, model.StatusDone)
					So(rs[1].Value, ShouldEqual, 42)
					So(store.Count(ctx), ShouldEqual, 3)
				})
			})

			Convey("And the retention window passes", func() {
				So(store.Put(ctx, model.Result{JobID: "job-0", BatchID: "batch-1", Status: model.StatusDone, Completed: now}), ShouldBeNil)
				So(store.Put(ctx, model.Result{JobID: "job-1", BatchID: "batch-1", Status: model.StatusFailed, Completed: now.Add(50 * time.Second)}), ShouldBeNil)
				now = now.Add(90 * time.Second)

				Convey("Then only expired finished results should be pruned", func() {
					So(store.Prune(), ShouldEqual, 1)
					_, err := store.Get(ctx, "job-0")
					So(errors.Is(err, ErrNotFound), ShouldBeTrue)
					r, err := store.Get(ctx, "job-2")
					So(err, ShouldBeNil)
					So(r.Status, ShouldEqual, model.StatusQueued)
					rs, _ := store.Batch(ctx, "batch-1")
					So(len(rs), ShouldEqual, 2)
				})
			})
		})

		Convey("When querying unknown identifiers", func() {
			_, errJob := store.Get(ctx, "nope")
			_, errBatch := store.Batch(ctx, "nope")

			Convey("Then not found should be reported", func() {
				So(errors.Is(errJob, ErrNotFound), ShouldBeTrue)
				So(errors.Is(errBatch, ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When the job ID is empty", func() {
			err := store.Put(ctx, model.Result{})

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, ErrInvalidID), ShouldBeTrue)
			})
		})

		Convey("When closed twice", func() {
			Convey("Then it should not panic", func() {
				So(store.Close(), ShouldBeNil)
				So(store.Close(), ShouldBeNil)
			})
		})
	})
}
