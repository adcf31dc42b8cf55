package mirror

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/google/uuid"

	"retailpos/m/domain"
	"retailpos/m/internal/config"
)

const putTimeout = 10 * time.Second

// Dynamo mirrors records into a single DynamoDB table. The partition key
// "pk" is "<collection>#<primary id>" so upserts of the same entity land on
// the same item; event appends use a fresh uuid instead of the primary id.
type Dynamo struct {
	client *dynamodb.Client
	table  string
}

// New returns the configured sink: a Dynamo sink when mirroring is enabled,
// the Noop sink otherwise.
func New(ctx context.Context, cfg config.Config) (Sink, error) {
	if !cfg.MirrorEnabled {
		return Noop{}, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &Dynamo{
		client: dynamodb.NewFromConfig(awsCfg),
		table:  cfg.MirrorTable,
	}, nil
}

func (d *Dynamo) put(ctx context.Context, pk string, doc map[string]any) error {
	doc["pk"] = pk
	av, err := attributevalue.MarshalMap(doc)
	if err != nil {
		return fmt.Errorf("marshal mirror document: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, putTimeout)
	defer cancel()
	if _, err := d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.table),
		Item:      av,
	}); err != nil {
		return fmt.Errorf("put %s: %w", pk, err)
	}
	return nil
}

func (d *Dynamo) UpsertProduct(ctx context.Context, p domain.Product) error {
	return d.put(ctx, fmt.Sprintf("products#%d", p.ID), productDoc(p))
}

func (d *Dynamo) UpsertCustomer(ctx context.Context, c domain.Customer) error {
	return d.put(ctx, fmt.Sprintf("customers#%d", c.ID), customerDoc(c))
}

func (d *Dynamo) WriteSale(ctx context.Context, r domain.Receipt, products []domain.Product) error {
	if err := d.put(ctx, fmt.Sprintf("sales#%d", r.SaleID), saleDoc(r)); err != nil {
		return err
	}
	// Re-mirror post-sale quantities so the replica converges even if an
	// earlier product upsert was missed.
	for _, p := range products {
		if err := d.UpsertProduct(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dynamo) AppendSaleEvent(ctx context.Context, r domain.Receipt) error {
	return d.put(ctx, "sales_events#"+uuid.NewString(), saleEventDoc(r))
}

func (d *Dynamo) AppendStockEvent(ctx context.Context, saleID int64, line domain.ReceiptLine) error {
	return d.put(ctx, "stock_events#"+uuid.NewString(), stockEventDoc(saleID, line))
}
