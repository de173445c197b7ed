package cable

import (
	"math"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Profile is the envelope cross-section shared by the envelope and the
// sector solids, plus the derived quantities the trapezoid and cables are
// sized from.
type Profile struct {
	HalfSectorAngle  float64 // alpha = pi / SectorCount
	TotalAngularSpan float64 // phi span of the envelope

	Z    []float64
	RMin []float64
	RMax []float64

	RStep0 float64
	RStep1 float64
}

// DeriveProfile computes the envelope profile. theta[2] of 0 or pi/2 makes
// the result infinite and is not checked.
func DeriveProfile(cfg Config) Profile {
	alpha := math.Pi / float64(cfg.SectorCount)
	span := float64(cfg.TotalSectorCount) * 2 * math.Pi / float64(cfg.SectorCount)

	th1, th2 := cfg.Theta[1], cfg.Theta[2]
	rin, t := cfg.InnerRadius, cfg.Thickness

	z0 := cfg.ZOffset[1] + cfg.RMax[1]*math.Tan(th1) + (rin-cfg.RMax[1])*math.Tan(th2)
	z1 := z0 + t/math.Cos(th2)
	z2 := cfg.ZOffset[3]

	rstep0 := rin + (z2-z1)/math.Tan(th2)
	rstep1 := rin + (z1-z0)/math.Tan(th2)

	return Profile{
		HalfSectorAngle:  alpha,
		TotalAngularSpan: span,
		Z:                []float64{z0, z1, z2, z2 + t/math.Cos(th2)},
		RMin:             []float64{rin, rin, rstep0, cfg.RMax[2]},
		RMax:             []float64{rin, rstep1, cfg.RMax[2], cfg.RMax[2]},
		RStep0:           rstep0,
		RStep1:           rstep1,
	}
}

// Check reports every place the profile is not a proper cross-section:
// z must strictly increase and rmin must not exceed rmax. The builder does
// not call it; it is for callers that want to reject bad configurations.
func (p Profile) Check() error {
	var err error
	for i := range p.Z {
		if i > 0 && !(p.Z[i] > p.Z[i-1]) {
			err = multierr.Append(err, errors.Errorf("z[%d]=%g does not exceed z[%d]=%g", i, p.Z[i], i-1, p.Z[i-1]))
		}
		if p.RMin[i] > p.RMax[i] {
			err = multierr.Append(err, errors.Errorf("rmin[%d]=%g exceeds rmax[%d]=%g", i, p.RMin[i], i, p.RMax[i]))
		}
	}
	return err
}

// trapGeometry is the air trapezoid sitting in one sector.
type trapGeometry struct {
	RInL, ROutL float64
	DX1, DX2    float64
	DY, DZ      float64
}

func deriveTrap(cfg Config, p Profile) trapGeometry {
	s := cfg.Thickness * math.Sin(cfg.Theta[2])
	rinl := p.RMin[0] + s
	routl := p.RMax[2] - s
	return trapGeometry{
		RInL:  rinl,
		ROutL: routl,
		DX1:   rinl * math.Tan(p.HalfSectorAngle),
		DX2:   0.90 * routl * math.Tan(p.HalfSectorAngle),
		DY:    0.5 * cfg.Thickness,
		DZ:    0.5 * (routl - rinl),
	}
}

// cableTilt is the angle of the trapezoid's slanted sides to its axis.
func (g trapGeometry) cableTilt() float64 {
	return math.Atan((g.DX2 - g.DX1) / (2 * g.DZ))
}
