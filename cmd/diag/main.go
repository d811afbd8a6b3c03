package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/issdash/issdash/internal/feed"
	"github.com/issdash/issdash/internal/geo"
	"github.com/issdash/issdash/internal/visibility"
)

// One-shot feed check: fetch the live position and crew roster, evaluate the
// observer status, and print the result. Useful for verifying connectivity
// and coordinates without running the full server.
func main() {
	lat := flag.Float64("lat", 30.673290, "observer latitude in degrees")
	lon := flag.Float64("lon", -88.111153, "observer longitude in degrees")
	tolerance := flag.Float64("tolerance", 5, "nearby tolerance in degrees")
	flag.Parse()

	obs, err := geo.NewLocation(*lat, *lon, 0)
	if err != nil {
		fmt.Println("ERROR invalid observer:", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	position := feed.NewPositionClient("", 5*time.Second)
	sample, err := position.Fetch(ctx)
	if err != nil {
		fmt.Println("ERROR fetching position:", err)
		os.Exit(1)
	}
	fmt.Printf("Position: lat=%.4f lon=%.4f alt=%.1fkm vel=%.0fkm/h at %v\n",
		sample.LatDeg, sample.LonDeg, sample.AltitudeKm, sample.VelocityKmh,
		sample.Time.Format(time.RFC3339))

	crew := feed.NewCrewClient("", 5*time.Second)
	members, err := crew.Fetch(ctx)
	if err != nil {
		fmt.Println("WARN fetching crew:", err)
	} else {
		fmt.Printf("Crew aboard: %d\n", len(members))
		for _, m := range members {
			fmt.Printf("  %s (%s)\n", m.Name, m.Craft)
		}
	}

	sun := feed.NewSunClient("", 5*time.Second)
	times, err := sun.TimesFor(ctx, obs.LatDeg, obs.LonDeg)
	if err != nil {
		fmt.Println("WARN fetching sun times:", err)
	} else {
		fmt.Printf("Sunrise: %v  Sunset: %v\n",
			times.Sunrise.Format(time.RFC3339), times.Sunset.Format(time.RFC3339))
	}

	st := visibility.StatusAt(obs, sample, *tolerance, times.Sunrise, times.Sunset, time.Now().UTC())
	fmt.Printf("\nObserver %.4f,%.4f:\n", obs.LatDeg, obs.LonDeg)
	fmt.Printf("  separation=%.1fkm elevation=%.1f\u00b0 nearby=%v dark=%v\n",
		st.SeparationKm, st.Elevation, st.Nearby, st.Dark)
	if st.LookUp {
		fmt.Println("  LOOK UP!")
	}
}
