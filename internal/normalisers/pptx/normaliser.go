// Package pptx normalises PowerPoint decks. Besides slide text it returns
// every text-bearing shape with its position, size, font size and fill so
// the timeline extractor can reason about layout.
//
// Positions are in EMU. Group transforms are applied, table cells become
// individual shapes, and placeholders without their own transform inherit
// geometry from the slide layout and master.
package pptx

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
	"github.com/custodia-labs/docqa/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// MIMEType is the PPTX content type.
const MIMEType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

const (
	relSlide  = "/slide"
	relLayout = "/slideLayout"
	relMaster = "/slideMaster"

	// 10in x 7.5in, used when presentation.xml has no slide size.
	defaultSlideWidth  = 9144000
	defaultSlideHeight = 6858000
)

// Normaliser handles PPTX decks.
type Normaliser struct{}

// New creates a new PPTX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{MIMEType}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts slides in presentation order. Each slide with text
// becomes a section whose page is the slide number; Document.Slides holds
// the positioned shapes of every slide.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	zr, err := normalisers.OpenZip(raw.Content)
	if err != nil {
		return nil, err
	}
	p := &pkg{zr: zr, placeholders: map[string]map[string]rect{}}

	slides, err := p.slides()
	if err != nil {
		return nil, fmt.Errorf("%w: pptx %s: %v", domain.ErrInvalidInput, raw.URI, err)
	}

	var sections []domain.Section
	for _, s := range slides {
		var lines []string
		for _, sh := range s.Shapes {
			lines = append(lines, sh.Text)
		}
		if len(lines) > 0 {
			sections = append(sections, domain.Section{Text: strings.Join(lines, "\n"), Page: s.Number})
		}
	}

	doc := normalisers.NewDocument(raw, normalisers.CoreTitle(zr), "pptx", sections)
	doc.Slides = slides
	doc.Metadata["slides"] = len(slides)
	return &driven.NormaliseResult{Document: doc}, nil
}

// rect is a resolved placement in slide EMU.
type rect struct {
	x, y, w, h float64
}

// transform maps child coordinates of nested groups onto the slide.
type transform struct {
	sx, sy, dx, dy float64
}

var identity = transform{sx: 1, sy: 1}

func (t transform) apply(r rect) rect {
	return rect{x: r.x*t.sx + t.dx, y: r.y*t.sy + t.dy, w: r.w * t.sx, h: r.h * t.sy}
}

// then composes a group's own child mapping under t.
func (t transform) then(x *xfrmXML) transform {
	if x == nil || x.Off == nil || x.Ext == nil {
		return t
	}
	sx, sy := 1.0, 1.0
	chX, chY := float64(x.Off.X), float64(x.Off.Y)
	if x.ChOff != nil {
		chX, chY = float64(x.ChOff.X), float64(x.ChOff.Y)
	}
	if x.ChExt != nil && x.ChExt.Cx > 0 && x.ChExt.Cy > 0 {
		sx = float64(x.Ext.Cx) / float64(x.ChExt.Cx)
		sy = float64(x.Ext.Cy) / float64(x.ChExt.Cy)
	}
	local := transform{sx: sx, sy: sy, dx: float64(x.Off.X) - chX*sx, dy: float64(x.Off.Y) - chY*sy}
	return transform{
		sx: local.sx * t.sx,
		sy: local.sy * t.sy,
		dx: local.dx*t.sx + t.dx,
		dy: local.dy*t.sy + t.dy,
	}
}

func xfrmRect(x *xfrmXML) (rect, bool) {
	if x == nil || x.Off == nil || x.Ext == nil {
		return rect{}, false
	}
	return rect{x: float64(x.Off.X), y: float64(x.Off.Y), w: float64(x.Ext.Cx), h: float64(x.Ext.Cy)}, true
}

// pkg reads parts from one presentation package.
type pkg struct {
	zr           *zip.Reader
	placeholders map[string]map[string]rect // part -> placeholder key -> rect
}

func (p *pkg) decode(name string, v any) (bool, error) {
	data, err := normalisers.ReadZipEntry(p.zr, name)
	if err != nil || data == nil {
		return false, err
	}
	if err := xml.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("parsing %s: %w", name, err)
	}
	return true, nil
}

// rels returns relationship ID -> resolved target part for part.
func (p *pkg) rels(part string) (map[string]string, map[string]string, error) {
	relsPath := path.Join(path.Dir(part), "_rels", path.Base(part)+".rels")
	var r relationshipsXML
	if _, err := p.decode(relsPath, &r); err != nil {
		return nil, nil, err
	}
	byID := map[string]string{}
	byType := map[string]string{}
	for _, rel := range r.Relationships {
		target := rel.Target
		if strings.HasPrefix(target, "/") {
			target = strings.TrimPrefix(target, "/")
		} else {
			target = path.Join(path.Dir(part), target)
		}
		byID[rel.ID] = target
		if i := strings.LastIndex(rel.Type, "/"); i >= 0 {
			if _, seen := byType[rel.Type[i:]]; !seen {
				byType[rel.Type[i:]] = target
			}
		}
	}
	return byID, byType, nil
}

func (p *pkg) slides() ([]domain.Slide, error) {
	const presPart = "ppt/presentation.xml"
	var pres presentationXML
	ok, err := p.decode(presPart, &pres)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%s missing", presPart)
	}

	width, height := float64(pres.SlideSize.Cx), float64(pres.SlideSize.Cy)
	if width <= 0 || height <= 0 {
		width, height = defaultSlideWidth, defaultSlideHeight
	}

	byID, _, err := p.rels(presPart)
	if err != nil {
		return nil, err
	}

	slides := make([]domain.Slide, 0, len(pres.SlideIDs))
	for i, sid := range pres.SlideIDs {
		number := i + 1
		part, ok := byID[sid.RID]
		if !ok {
			logger.Warn("pptx: slide %d: relationship %s not found", number, sid.RID)
			slides = append(slides, domain.Slide{Number: number, Width: width, Height: height,
				Malformed: "relationship " + sid.RID + " not found"})
			continue
		}
		shapes, err := p.slideShapes(part, number)
		s := domain.Slide{Number: number, Width: width, Height: height, Shapes: shapes}
		if err != nil {
			logger.Warn("pptx: slide %d: %v", number, err)
			s.Malformed = err.Error()
		}
		slides = append(slides, s)
	}
	return slides, nil
}

func (p *pkg) slideShapes(part string, number int) ([]domain.Shape, error) {
	var slide partXML
	ok, err := p.decode(part, &slide)
	if err != nil || !ok {
		return nil, err
	}
	_, byType, err := p.rels(part)
	if err != nil {
		return nil, err
	}

	w := &walker{slide: number, inherit: func(ph *placeholderXML) (rect, bool) {
		return p.inherited(byType[relLayout], ph)
	}}
	w.walk(&slide.Tree, identity)
	return w.shapes, nil
}

// inherited finds a placeholder's rect in the layout, then its master.
func (p *pkg) inherited(layout string, ph *placeholderXML) (rect, bool) {
	if layout == "" || ph == nil {
		return rect{}, false
	}
	if r, ok := lookupPlaceholder(p.placeholderRects(layout), ph); ok {
		return r, true
	}
	_, byType, err := p.rels(layout)
	if err != nil {
		return rect{}, false
	}
	master := byType[relMaster]
	if master == "" {
		return rect{}, false
	}
	return lookupPlaceholder(p.placeholderRects(master), ph)
}

func (p *pkg) placeholderRects(part string) map[string]rect {
	if m, ok := p.placeholders[part]; ok {
		return m
	}
	m := map[string]rect{}
	p.placeholders[part] = m

	var layout partXML
	if ok, err := p.decode(part, &layout); err != nil || !ok {
		return m
	}
	for _, item := range layout.Tree.items {
		if item.shape == nil || item.shape.NvSpPr.NvPr.Ph == nil {
			continue
		}
		r, ok := xfrmRect(item.shape.SpPr.Xfrm)
		if !ok {
			continue
		}
		ph := item.shape.NvSpPr.NvPr.Ph
		if ph.Idx != "" {
			m["idx:"+ph.Idx] = r
		}
		if _, seen := m["type:"+phType(ph)]; !seen {
			m["type:"+phType(ph)] = r
		}
	}
	return m
}

func lookupPlaceholder(m map[string]rect, ph *placeholderXML) (rect, bool) {
	if ph.Idx != "" {
		if r, ok := m["idx:"+ph.Idx]; ok {
			return r, true
		}
	}
	r, ok := m["type:"+phType(ph)]
	return r, ok
}

// phType normalises placeholder types; an absent type means body.
func phType(ph *placeholderXML) string {
	switch ph.Type {
	case "", "obj":
		return "body"
	case "ctrTitle":
		return "title"
	default:
		return ph.Type
	}
}

// walker flattens a shape tree into slide shapes in authored order.
type walker struct {
	slide   int
	inherit func(*placeholderXML) (rect, bool)
	shapes  []domain.Shape
}

func (w *walker) walk(c *container, t transform) {
	for _, item := range c.items {
		switch {
		case item.shape != nil:
			w.shape(item.shape, t)
		case item.group != nil:
			w.walk(item.group, t.then(item.group.xfrm))
		case item.frame != nil:
			w.table(item.frame, t)
		}
	}
}

func (w *walker) shape(s *shapeXML, t transform) {
	text, size := s.TxBody.text()
	if text == "" {
		return
	}
	r, ok := xfrmRect(s.SpPr.Xfrm)
	if !ok {
		r, ok = w.inherit(s.NvSpPr.NvPr.Ph)
	}
	if !ok {
		logger.Debug("pptx: slide %d shape %s has no geometry", w.slide, s.NvSpPr.CNvPr.ID)
	}
	r = t.apply(r)
	w.shapes = append(w.shapes, domain.Shape{
		ID:       shapeID(s.NvSpPr.CNvPr.ID, len(w.shapes)),
		Slide:    w.slide,
		X:        r.x,
		Y:        r.y,
		Width:    r.w,
		Height:   r.h,
		Text:     text,
		FontSize: size,
		FillHex:  fillHex(s.SpPr.SolidFill),
	})
}

// table emits one shape per non-empty cell, laid out by the column grid
// and row heights.
func (w *walker) table(f *frameXML, t transform) {
	if f.Table == nil {
		return
	}
	frame, _ := xfrmRect(f.Xfrm)
	id := shapeID(f.NvGraphicFramePr.CNvPr.ID, len(w.shapes))

	y := frame.y
	for ri, row := range f.Table.Rows {
		x := frame.x
		col := 0
		for ci, cell := range row.Cells {
			span := max(cell.GridSpan, 1)
			width := 0.0
			for k := col; k < col+span && k < len(f.Table.Grid); k++ {
				width += float64(f.Table.Grid[k].W)
			}
			text, size := cell.TxBody.text()
			if text != "" && !cell.HMerge {
				r := t.apply(rect{x: x, y: y, w: width, h: float64(row.H)})
				w.shapes = append(w.shapes, domain.Shape{
					ID:       id + "-r" + strconv.Itoa(ri) + "c" + strconv.Itoa(ci),
					Slide:    w.slide,
					X:        r.x,
					Y:        r.y,
					Width:    r.w,
					Height:   r.h,
					Text:     text,
					FontSize: size,
					FillHex:  fillHex(cell.TcPr.SolidFill),
				})
			}
			x += width
			col += span
		}
		y += float64(row.H)
	}
}

func shapeID(id string, ordinal int) string {
	if id == "" {
		return "shape-" + strconv.Itoa(ordinal+1)
	}
	return id
}

func fillHex(f *solidFillXML) string {
	if f == nil || f.SrgbClr == nil {
		return ""
	}
	return strings.ToUpper(f.SrgbClr.Val)
}
