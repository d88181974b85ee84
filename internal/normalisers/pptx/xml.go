package pptx

import (
	"encoding/xml"
	"math"
	"strconv"
	"strings"
)

// num is a numeric attribute. A value that does not parse decodes to NaN,
// which shape validation later reports, instead of failing the whole part.
type num float64

func (n *num) UnmarshalXMLAttr(attr xml.Attr) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(attr.Value), 64)
	if err != nil {
		v = math.NaN()
	}
	*n = num(v)
	return nil
}

// presentationXML is ppt/presentation.xml.
type presentationXML struct {
	SlideSize struct {
		Cx int64 `xml:"cx,attr"`
		Cy int64 `xml:"cy,attr"`
	} `xml:"sldSz"`
	SlideIDs []struct {
		RID string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
	} `xml:"sldIdLst>sldId"`
}

type relationshipsXML struct {
	Relationships []struct {
		ID     string `xml:"Id,attr"`
		Type   string `xml:"Type,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

// partXML is a slide, layout or master part; all carry cSld/spTree.
type partXML struct {
	Tree container `xml:"cSld>spTree"`
}

type point struct {
	X num `xml:"x,attr"`
	Y num `xml:"y,attr"`
}

type extent struct {
	Cx num `xml:"cx,attr"`
	Cy num `xml:"cy,attr"`
}

type xfrmXML struct {
	Off   *point  `xml:"off"`
	Ext   *extent `xml:"ext"`
	ChOff *point  `xml:"chOff"`
	ChExt *extent `xml:"chExt"`
}

type placeholderXML struct {
	Type string `xml:"type,attr"`
	Idx  string `xml:"idx,attr"`
}

type nonVisualXML struct {
	CNvPr struct {
		ID   string `xml:"id,attr"`
		Name string `xml:"name,attr"`
	} `xml:"cNvPr"`
	NvPr struct {
		Ph *placeholderXML `xml:"ph"`
	} `xml:"nvPr"`
}

type solidFillXML struct {
	SrgbClr *struct {
		Val string `xml:"val,attr"`
	} `xml:"srgbClr"`
}

type runPropsXML struct {
	Sz num `xml:"sz,attr"`
}

type runXML struct {
	RPr *runPropsXML `xml:"rPr"`
	T   string       `xml:"t"`
}

type paraXML struct {
	Runs       []runXML     `xml:"r"`
	Fields     []runXML     `xml:"fld"`
	EndParaRPr *runPropsXML `xml:"endParaRPr"`
}

type txBodyXML struct {
	Paras []paraXML `xml:"p"`
}

// text joins paragraphs with newlines and returns the largest run size in
// points.
func (b *txBodyXML) text() (string, float64) {
	if b == nil {
		return "", 0
	}
	var lines []string
	var maxSz num
	for _, p := range b.Paras {
		var sb strings.Builder
		for _, r := range append(p.Runs, p.Fields...) {
			sb.WriteString(r.T)
			if r.RPr != nil && r.RPr.Sz > maxSz && strings.TrimSpace(r.T) != "" {
				maxSz = r.RPr.Sz
			}
		}
		if maxSz == 0 && p.EndParaRPr != nil {
			maxSz = p.EndParaRPr.Sz
		}
		lines = append(lines, sb.String())
	}
	if math.IsNaN(float64(maxSz)) {
		maxSz = 0
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), float64(maxSz) / 100
}

type shapeXML struct {
	NvSpPr nonVisualXML `xml:"nvSpPr"`
	SpPr   struct {
		Xfrm      *xfrmXML      `xml:"xfrm"`
		SolidFill *solidFillXML `xml:"solidFill"`
	} `xml:"spPr"`
	TxBody *txBodyXML `xml:"txBody"`
}

type tableXML struct {
	Grid []struct {
		W num `xml:"w,attr"`
	} `xml:"tblGrid>gridCol"`
	Rows []struct {
		H     num `xml:"h,attr"`
		Cells []struct {
			GridSpan int        `xml:"gridSpan,attr"`
			HMerge   bool       `xml:"hMerge,attr"`
			TxBody   *txBodyXML `xml:"txBody"`
			TcPr     struct {
				SolidFill *solidFillXML `xml:"solidFill"`
			} `xml:"tcPr"`
		} `xml:"tc"`
	} `xml:"tr"`
}

type frameXML struct {
	NvGraphicFramePr nonVisualXML `xml:"nvGraphicFramePr"`
	Xfrm             *xfrmXML     `xml:"xfrm"`
	Table            *tableXML    `xml:"graphic>graphicData>tbl"`
}

// treeItem is one child of a shape tree, in authored order.
type treeItem struct {
	shape *shapeXML
	group *container
	frame *frameXML
}

// container is an spTree or grpSp. Children keep document order, which
// encoding/xml loses for heterogeneous slices.
type container struct {
	xfrm  *xfrmXML
	items []treeItem
}

func (c *container) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "grpSpPr":
				var pr struct {
					Xfrm *xfrmXML `xml:"xfrm"`
				}
				if err := d.DecodeElement(&pr, &t); err != nil {
					return err
				}
				c.xfrm = pr.Xfrm
			case "sp":
				var s shapeXML
				if err := d.DecodeElement(&s, &t); err != nil {
					return err
				}
				c.items = append(c.items, treeItem{shape: &s})
			case "grpSp":
				var g container
				if err := d.DecodeElement(&g, &t); err != nil {
					return err
				}
				c.items = append(c.items, treeItem{group: &g})
			case "graphicFrame":
				var f frameXML
				if err := d.DecodeElement(&f, &t); err != nil {
					return err
				}
				c.items = append(c.items, treeItem{frame: &f})
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			return nil
		}
	}
}
