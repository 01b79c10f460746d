package document

import (
	"io"
	"strconv"

	"github.com/Vamsi1807/AI-Call-Center/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

// ParseYAML reads a document written as a mapping of sheet name to a list
// of rows, each row a mapping of column to scalar:
//
//	FAQ:
//	  - Q: Hours?
//	    A: 9-5
//
// Mapping order in the file is kept for both sheets and columns.
func ParseYAML(name string, r io.Reader) (*model.Document, error) {
	var root yaml.Node
	if err := yaml.NewDecoder(r).Decode(&root); err != nil {
		if err == io.EOF {
			return &model.Document{Name: name}, nil
		}
		return nil, goerr.Wrap(err, "failed to decode yaml document", goerr.V("document", name))
	}

	node := &root
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return nil, goerr.New("document root must be a mapping of sheets",
			goerr.V("document", name),
			goerr.V("line", node.Line))
	}

	doc := &model.Document{Name: name}
	for i := 0; i+1 < len(node.Content); i += 2 {
		sheet, err := yamlSheet(node.Content[i].Value, node.Content[i+1])
		if err != nil {
			return nil, goerr.Wrap(err, "invalid sheet", goerr.V("document", name))
		}
		doc.Sheets = append(doc.Sheets, sheet)
	}
	return doc, nil
}

func yamlSheet(name string, node *yaml.Node) (*model.Sheet, error) {
	sheet := &model.Sheet{Name: name}
	if node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null" {
		return sheet, nil
	}
	if node.Kind != yaml.SequenceNode {
		return nil, goerr.New("sheet must be a list of rows", goerr.V("sheet", name), goerr.V("line", node.Line))
	}

	for _, rowNode := range node.Content {
		if rowNode.Kind != yaml.MappingNode {
			return nil, goerr.New("row must be a mapping", goerr.V("sheet", name), goerr.V("line", rowNode.Line))
		}

		row := make(model.Row, 0, len(rowNode.Content)/2)
		for i := 0; i+1 < len(rowNode.Content); i += 2 {
			value, err := yamlScalar(rowNode.Content[i+1])
			if err != nil {
				return nil, goerr.Wrap(err, "invalid cell",
					goerr.V("sheet", name),
					goerr.V("column", rowNode.Content[i].Value))
			}
			row = append(row, model.Cell{Column: rowNode.Content[i].Value, Value: value})
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet, nil
}

func yamlScalar(node *yaml.Node) (model.Value, error) {
	if node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	if node.Kind != yaml.ScalarNode {
		return model.Value{}, goerr.New("cell value must be a scalar", goerr.V("line", node.Line))
	}

	switch node.ShortTag() {
	case "!!null":
		return model.NullValue(), nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return model.Value{}, goerr.Wrap(err, "invalid boolean", goerr.V("line", node.Line))
		}
		return model.BoolValue(b), nil
	case "!!int", "!!float":
		var n float64
		if err := node.Decode(&n); err == nil {
			return model.NumberValue(n), nil
		}
		if n, err := strconv.ParseFloat(node.Value, 64); err == nil {
			return model.NumberValue(n), nil
		}
		return model.StringValue(node.Value), nil
	default:
		return model.StringValue(node.Value), nil
	}
}
