package pipeline

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"purissima/internal"
	"purissima/internal/config"
	"purissima/internal/fields"
	"purissima/internal/mapping"
	"purissima/internal/util"
)

const (
	orderBlockSelector = "div.order"
	headerPairSelector = ".head-grid .kv"
	itemRowSelector    = "table.items tbody tr"
)

// ParseResult carries the orders of one document together with the counts of the
// pieces that were dropped along the way.
type ParseResult struct {
	Format         Format
	Orders         []internal.Order
	SkippedBlocks  int
	SkippedRows    int
	DuplicateItems int
}

type Parser struct {
	labels *fields.Normalizer
	rules  *mapping.Engine
	logger *zap.Logger
}

func NewParser(labels *fields.Normalizer, rules *mapping.Engine, logger *zap.Logger) *Parser {
	if labels == nil {
		labels = fields.New(nil)
	}
	if rules == nil {
		rules = mapping.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{labels: labels, rules: rules, logger: logger}
}

// NewParserFromRules builds a parser over a loaded rule configuration.
func NewParserFromRules(rules config.Rules, logger *zap.Logger) (*Parser, error) {
	engine, err := mapping.NewEngine(rules.Items)
	if err != nil {
		return nil, err
	}
	return NewParser(fields.New(rules.Labels), engine, logger), nil
}

func (p *Parser) Parse(raw []byte) ([]internal.Order, error) {
	res, err := p.ParseDocument(raw)
	if err != nil {
		return nil, err
	}
	return res.Orders, nil
}

// ParseDocument accepts an orders page (HTML or a saved MHTML archive) or the
// orders API JSON payload. Only unreadable input is an error; malformed blocks and
// rows are skipped and counted.
func (p *Parser) ParseDocument(raw []byte) (ParseResult, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if len(bytes.TrimSpace(raw)) == 0 {
		return ParseResult{}, fmt.Errorf("%w: empty document", internal.ErrParseFatal)
	}

	format := DetectFormat(raw)
	var (
		res ParseResult
		err error
	)
	switch format {
	case FormatJSON:
		res, err = p.parsePayload(util.EnsureUTF8(raw))
	case FormatMHTML:
		var html string
		html, err = htmlFromArchive(raw)
		if err == nil {
			res, err = p.parseHTML(html)
		}
	default:
		res, err = p.parseHTML(string(util.EnsureUTF8(raw)))
	}
	if err != nil {
		return ParseResult{}, err
	}
	res.Format = format

	p.logger.Debug("document parsed",
		zap.String("format", string(format)),
		zap.Int("orders", len(res.Orders)),
		zap.Int("skipped_blocks", res.SkippedBlocks),
		zap.Int("skipped_rows", res.SkippedRows),
		zap.Int("duplicate_items", res.DuplicateItems))
	return res, nil
}

func (p *Parser) parseHTML(html string) (ParseResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ParseResult{}, fmt.Errorf("%w: %v", internal.ErrParseFatal, err)
	}

	res := ParseResult{Orders: []internal.Order{}}
	doc.Find(orderBlockSelector).Each(func(i int, block *goquery.Selection) {
		// an order block holding other order blocks is only a wrapper
		if block.Find(orderBlockSelector).Length() > 0 {
			return
		}
		order, skippedRows, ok := p.parseBlock(block)
		res.SkippedRows += skippedRows
		if !ok {
			res.SkippedBlocks++
			p.logger.Debug("order block without recognised fields", zap.Int("block", i))
			return
		}
		res.Orders = append(res.Orders, order)
	})
	return res, nil
}

func (p *Parser) parseBlock(block *goquery.Selection) (internal.Order, int, bool) {
	order := internal.Order{
		Fields: map[internal.FieldKey]string{},
		Raw:    map[string]string{},
		Items:  []internal.OrderItem{},
	}

	block.Find(headerPairSelector).Each(func(_ int, kv *goquery.Selection) {
		label := strings.TrimSpace(kv.Find("b").First().Text())
		value := strings.TrimSpace(kv.Find("span").First().Text())
		if label == "" || value == "" {
			return
		}
		p.setField(&order, label, value)
	})

	skipped := 0
	block.Find(itemRowSelector).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			if row.Find("th").Length() == 0 {
				skipped++
			}
			return
		}
		description := strings.TrimSpace(cells.Eq(0).Text())
		quantity := strings.TrimSpace(cells.Eq(1).Text())
		if description == "" && quantity == "" {
			skipped++
			return
		}
		order.Items = append(order.Items, p.newItem(description, quantity))
	})

	if len(order.Fields) == 0 {
		return internal.Order{}, skipped, false
	}
	p.finish(&order)
	return order, skipped, true
}

func (p *Parser) parsePayload(raw []byte) (ParseResult, error) {
	entries, err := decodePayload(raw)
	if err != nil {
		return ParseResult{}, err
	}

	res := ParseResult{Orders: []internal.Order{}}
	for _, e := range entries {
		entry, err := decodeEntry(e.Raw)
		if err != nil {
			res.SkippedBlocks++
			p.logger.Debug("malformed payload order", zap.String("key", e.Key), zap.Error(err))
			continue
		}
		res.SkippedRows += entry.SkippedItems

		order := internal.Order{
			Fields: map[internal.FieldKey]string{},
			Raw:    map[string]string{},
			Items:  []internal.OrderItem{},
		}
		for key, value := range entry.Order {
			v := strings.TrimSpace(scalar(value))
			if v == "" {
				continue
			}
			p.setField(&order, key, v)
		}
		if len(order.Fields) == 0 {
			res.SkippedBlocks++
			p.logger.Debug("payload order without recognised fields", zap.String("key", e.Key))
			continue
		}
		if order.Fields[internal.FieldOrderID] == "" && strings.TrimSpace(e.Key) != "" {
			order.Fields[internal.FieldOrderID] = fields.NormalizeText(e.Key)
		}

		seen := map[string]struct{}{}
		for _, item := range entry.Items {
			if key := itemKey(item); key != "" {
				if _, dup := seen[key]; dup {
					res.DuplicateItems++
					p.logger.Debug("duplicate item removed",
						zap.String("order_id", order.Fields[internal.FieldOrderID]),
						zap.String("dedup_key", key))
					continue
				}
				seen[key] = struct{}{}
			}
			name := strings.TrimSpace(scalar(item["itm_name"]))
			quantity := strings.TrimSpace(scalar(item["quantity"]))
			if name == "" && quantity == "" {
				res.SkippedRows++
				continue
			}
			order.Items = append(order.Items, p.newItem(name, quantity))
		}

		p.finish(&order)
		res.Orders = append(res.Orders, order)
	}
	return res, nil
}

func (p *Parser) setField(order *internal.Order, label, value string) {
	if slug := p.labels.Slug(label); slug != "" {
		order.Raw[slug] = value
	}
	if key, ok := p.labels.Key(label); ok {
		order.Fields[key] = fields.NormalizeText(value)
	}
}

func (p *Parser) finish(order *internal.Order) {
	order.ID = order.Fields[internal.FieldOrderID]
	if order.Fields[internal.FieldAddress] == "" {
		if address := fields.AddressOf(order.Fields); address != "" {
			order.Fields[internal.FieldAddress] = address
		}
	}
}

func (p *Parser) newItem(description, quantity string) internal.OrderItem {
	name := fields.NormalizeText(description)
	item := internal.OrderItem{
		RawName:       name,
		CanonicalName: name,
		RawQuantity:   quantity,
		Quantity:      util.ParseQuantity(quantity),
	}
	if m := p.rules.Resolve(name); m.Matched {
		item.CanonicalName = m.Label
		item.Period = m.Period
	}
	return item
}
