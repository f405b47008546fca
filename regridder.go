/*
Copyright © 2026 the InMAP authors.
This file is part of InMAP.

InMAP is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

InMAP is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with InMAP.  If not, see <http://www.gnu.org/licenses/>.
*/

package regrid

import (
	"fmt"

	"github.com/ctessum/geom"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/inmap/regrid/engine"
	"github.com/spatialmodel/inmap/regrid/mesh"
	"github.com/spatialmodel/inmap/regrid/topology"
)

// Option configures a Regridder.
type Option func(*options) error

type options struct {
	srcAt, dstAt  topology.Location
	unmapped      UnmappedAction
	extrapolation Extrapolation
	engine        engine.Engine
}

// SrcAt sets the location that source values are attached to. The
// default is "node".
func SrcAt(name string) Option {
	return func(o *options) error {
		at, err := topology.ParseLocation(name)
		if err != nil {
			return fmt.Errorf("regrid: source: %w", err)
		}
		o.srcAt = at
		return nil
	}
}

// DstAt sets the location that destination values are attached to. The
// default is "node".
func DstAt(name string) Option {
	return func(o *options) error {
		at, err := topology.ParseLocation(name)
		if err != nil {
			return fmt.Errorf("regrid: destination: %w", err)
		}
		o.dstAt = at
		return nil
	}
}

// WithUnmapped sets the unmapped point policy. The default is UnmappedIgnore.
func WithUnmapped(u UnmappedAction) Option {
	return func(o *options) error {
		o.unmapped = u
		return nil
	}
}

// WithUnmappedName sets the unmapped point policy by name.
func WithUnmappedName(name string) Option {
	return func(o *options) error {
		u, ok := FindUnmappedAction(name)
		if !ok {
			return fmt.Errorf("regrid: %w %q", ErrUnknownUnmappedAction, name)
		}
		o.unmapped = u
		return nil
	}
}

// WithExtrapolation sets the extrapolation policy. The default is
// ExtrapolateNone.
func WithExtrapolation(e Extrapolation) Option {
	return func(o *options) error {
		o.extrapolation = e
		return nil
	}
}

// WithExtrapolationName sets the extrapolation policy by name, with
// default parameters.
func WithExtrapolationName(name string) Option {
	return func(o *options) error {
		e, err := FindExtrapolation(name)
		if err != nil {
			return err
		}
		o.extrapolation = e
		return nil
	}
}

// WithEngine sets the engine that computes the regridding weights. The
// default is engine.NewPlanar().
func WithEngine(e engine.Engine) Option {
	return func(o *options) error {
		o.engine = e
		return nil
	}
}

// Regridder maps fields from a source discretization onto a destination
// discretization with a fixed configuration. It must not be used by
// several goroutines at once.
type Regridder struct {
	config   Config
	src, dst *engine.Field
	op       engine.Operator
}

// New creates a regridder from src to dst using method m. The
// configuration is validated before either provider is accessed.
func New(src, dst topology.Provider, m Method, opts ...Option) (*Regridder, error) {
	o := options{
		srcAt:         topology.Node,
		dstAt:         topology.Node,
		unmapped:      UnmappedIgnore,
		extrapolation: ExtrapolateNone{},
	}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, err
		}
	}
	if o.engine == nil {
		o.engine = engine.NewPlanar()
	}
	c, err := Configure(m, o.srcAt, o.dstAt, o.unmapped, o.extrapolation)
	if err != nil {
		return nil, err
	}

	srcField, err := newField(src, c.SrcAt)
	if err != nil {
		return nil, fmt.Errorf("regrid: source: %w", err)
	}
	dstField, err := newField(dst, c.DstAt)
	if err != nil {
		return nil, fmt.Errorf("regrid: destination: %w", err)
	}

	log := logrus.WithFields(logrus.Fields{
		"method":        c.Method,
		"src_at":        c.SrcAt,
		"dst_at":        c.DstAt,
		"src_size":      srcField.Size(),
		"dst_size":      dstField.Size(),
		"unmapped":      c.Unmapped,
		"extrapolation": c.Extrapolation.Name(),
	})
	log.Debug("regrid: computing weights")
	op, err := o.engine.NewRegrid(srcField, dstField, c.Params())
	if err != nil {
		return nil, fmt.Errorf("regrid: %s: %w", c.Method, err)
	}
	log.Debug("regrid: weights ready")
	return &Regridder{config: c, src: srcField, dst: dstField, op: op}, nil
}

// NewBilinear creates a bilinear regridder.
func NewBilinear(src, dst topology.Provider, opts ...Option) (*Regridder, error) {
	return New(src, dst, Method{Kind: Bilinear}, opts...)
}

// NewPatch creates a patch recovery regridder.
func NewPatch(src, dst topology.Provider, opts ...Option) (*Regridder, error) {
	return New(src, dst, Method{Kind: Patch}, opts...)
}

// NewNearestNeighbor creates a nearest neighbor regridder. If dtos is
// true every destination point takes its nearest source value; otherwise
// each source value goes to its nearest destination point.
func NewNearestNeighbor(src, dst topology.Provider, dtos bool, opts ...Option) (*Regridder, error) {
	return New(src, dst, Method{Kind: NearestNeighbor, DToS: dtos}, opts...)
}

// NewConserve creates a conservative regridder of the given order, which
// must be 1 or 2. Values must be attached to patches or cells, set with
// SrcAt and DstAt.
func NewConserve(src, dst topology.Provider, order int, opts ...Option) (*Regridder, error) {
	return New(src, dst, Method{Kind: Conserve, Order: order}, opts...)
}

// newField builds the discretization of p at the given location and an
// empty field on it. Point locations give node fields and polygon
// locations give element fields.
func newField(p topology.Provider, at topology.Location) (*engine.Field, error) {
	d, err := mesh.Build(p, at, !at.IsPoint())
	if err != nil {
		return nil, err
	}
	loc := engine.Node
	if !at.IsPoint() {
		loc = engine.Element
	}
	return engine.NewField(d, loc), nil
}

// Regrid maps values from the source onto the destination. values must
// have SrcSize elements and is not modified. The result has DstSize
// elements.
func (r *Regridder) Regrid(values []float64) ([]float64, error) {
	if len(values) != len(r.src.Data) {
		return nil, fmt.Errorf("regrid: %w: got %d values, source has %d", ErrShapeMismatch, len(values), len(r.src.Data))
	}
	copy(r.src.Data, values)
	if err := r.op.Regrid(r.src, r.dst); err != nil {
		return nil, fmt.Errorf("regrid: %w", err)
	}
	return append([]float64(nil), r.dst.Data...), nil
}

// Config returns the regridder's configuration.
func (r *Regridder) Config() Config { return r.config }

// SrcSize returns the number of source values.
func (r *Regridder) SrcSize() int { return len(r.src.Data) }

// DstSize returns the number of destination values.
func (r *Regridder) DstSize() int { return len(r.dst.Data) }

// Source returns the source discretization.
func (r *Regridder) Source() mesh.Discretization { return r.src.Discretization }

// Destination returns the destination discretization.
func (r *Regridder) Destination() mesh.Discretization { return r.dst.Discretization }

// SourcePoints returns the locations of the source values: nodes for
// point locations and polygon centroids otherwise.
func (r *Regridder) SourcePoints() []geom.Point { return r.src.Points() }

// DestinationPoints returns the locations of the destination values.
func (r *Regridder) DestinationPoints() []geom.Point { return r.dst.Points() }
