package migrate

import (
	"context"

	"backoffice-service/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type MigrateOptions struct {
	CreateExtensions       bool // pgcrypto
	CreateChecks           bool // CHECK-constraint'ы, включая арифметику журнала
	CreateIndexes          bool // индексы и UNIQUE
	CreateFKsViaSQL        bool // FK через Exec после AutoMigrate
	CreateUpdatedAtTrigger bool // триггеры updated_at
	CreateLedgerGuard      bool // запрет UPDATE/DELETE на stock_movements
}

func DefaultMigrateOptions() MigrateOptions {
	return MigrateOptions{
		CreateExtensions:       true,
		CreateChecks:           true,
		CreateIndexes:          true,
		CreateFKsViaSQL:        true,
		CreateUpdatedAtTrigger: true,
		CreateLedgerGuard:      true,
	}
}

// step is one named DDL statement; the name is what ends up in the log on failure.
type step struct {
	name string
	sql  string
}

func exec(ctx context.Context, db *gorm.DB, log *zap.Logger, steps []step) error {
	for _, s := range steps {
		if err := db.WithContext(ctx).Exec(s.sql).Error; err != nil {
			log.Error(s.name, zap.Error(err))
			return err
		}
	}
	return nil
}

func MigrateBackofficeDB(ctx context.Context, db *gorm.DB, log *zap.Logger, opt MigrateOptions) error {
	log.Info("Начало миграции базы заказов/склада")

	if opt.CreateExtensions {
		log.Info("Создание расширений PostgreSQL")
		if err := exec(ctx, db, log, []step{
			{"pgcrypto error", `CREATE EXTENSION IF NOT EXISTS pgcrypto`},
		}); err != nil {
			return err
		}
		log.Info("Расширения созданы")
	}

	log.Info("Создание таблиц")
	if err := db.WithContext(ctx).AutoMigrate(
		&models.Customer{},
		&models.Product{},
		&models.ProductPrice{},
		&models.Warehouse{},
		&models.Currency{},
		&models.Order{},
		&models.OrderItem{},
		&models.ShippingInfo{},
		&models.CustomerTransaction{},
		&models.InventoryItem{},
		&models.StockMovement{},
		&models.PurchaseOrder{},
		&models.PurchaseOrderItem{},
	); err != nil {
		log.Error("AutoMigrate error", zap.Error(err))
		return err
	}
	log.Info("Таблицы созданы")

	if opt.CreateUpdatedAtTrigger {
		log.Info("Создание триггеров updated_at")
		if err := exec(ctx, db, log, updatedAtSteps()); err != nil {
			return err
		}
		log.Info("Триггеры созданы")
	}

	if opt.CreateChecks {
		log.Info("Создание CHECK-ограничений")
		if err := exec(ctx, db, log, checkSteps); err != nil {
			return err
		}
		log.Info("CHECK-и созданы")
	}

	if opt.CreateIndexes {
		log.Info("Создание индексов и уникальностей")
		if err := exec(ctx, db, log, indexSteps); err != nil {
			return err
		}
		log.Info("Индексы созданы")
	}

	if opt.CreateFKsViaSQL {
		log.Info("Создание внешних ключей")
		if err := exec(ctx, db, log, fkSteps); err != nil {
			return err
		}
		log.Info("Внешние ключи созданы")
	}

	if opt.CreateLedgerGuard {
		log.Info("Защита журнала движений от изменений")
		if err := exec(ctx, db, log, []step{{"ledger guard", `
CREATE OR REPLACE FUNCTION forbid_stock_movement_change() RETURNS trigger AS $$
BEGIN RAISE EXCEPTION 'stock_movements is append-only'; END; $$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS trg_stock_movements_append_only ON stock_movements;
CREATE TRIGGER trg_stock_movements_append_only BEFORE UPDATE OR DELETE ON stock_movements
FOR EACH ROW EXECUTE FUNCTION forbid_stock_movement_change();
`}}); err != nil {
			return err
		}
	}

	log.Info("Миграция базы заказов/склада успешно завершена")
	return nil
}

var updatedAtTables = []string{
	"customers",
	"products",
	"orders",
	"order_items",
	"order_shipping_infos",
	"customer_transactions",
	"inventory_items",
}

func updatedAtSteps() []step {
	steps := []step{{"set_updated_at function", `
CREATE OR REPLACE FUNCTION set_updated_at() RETURNS trigger AS $$
BEGIN NEW.updated_at = now(); RETURN NEW; END; $$ LANGUAGE plpgsql;
`}}
	for _, t := range updatedAtTables {
		steps = append(steps, step{
			name: "trigger " + t,
			sql: `
DROP TRIGGER IF EXISTS trg_` + t + `_updated ON ` + t + `;
CREATE TRIGGER trg_` + t + `_updated BEFORE UPDATE ON ` + t + `
FOR EACH ROW EXECUTE FUNCTION set_updated_at();
`,
		})
	}
	return steps
}

var checkSteps = []step{
	// Резерв никогда не уходит ниже нуля; on-hand может (продажа без остатка)
	{"chk inventory_items", `
ALTER TABLE inventory_items
	DROP CONSTRAINT IF EXISTS chk_inventory_items_reserved_non_negative,
	ADD CONSTRAINT chk_inventory_items_reserved_non_negative
	CHECK (quantity_reserved >= 0);
`},
	// Арифметика журнала: after = before + delta
	{"chk stock_movements arithmetic", `
ALTER TABLE stock_movements
	DROP CONSTRAINT IF EXISTS chk_stock_movements_arithmetic,
	ADD CONSTRAINT chk_stock_movements_arithmetic
	CHECK (on_hand_after = on_hand_before + on_hand_delta
	   AND reserved_after = reserved_before + reserved_delta
	   AND reserved_after >= 0);
`},
	{"chk stock_movements.kind", `
ALTER TABLE stock_movements
	DROP CONSTRAINT IF EXISTS chk_stock_movements_kind_allowed,
	ADD CONSTRAINT chk_stock_movements_kind_allowed
	CHECK (kind IN ('SALE','SALE_REVERT','RESERVE','UNRESERVE','ADJUSTMENT','PURCHASE_RECEIPT'));
`},
	{"chk stock_movements.source_kind", `
ALTER TABLE stock_movements
	DROP CONSTRAINT IF EXISTS chk_stock_movements_source_kind_allowed,
	ADD CONSTRAINT chk_stock_movements_source_kind_allowed
	CHECK (source_kind IN ('IMPORTED_SALES_ORDER','ORDER_STATUS_TRANSITION','MANUAL_ADJUSTMENT','PURCHASE_ORDER'));
`},
	{"chk orders.status", `
ALTER TABLE orders
	DROP CONSTRAINT IF EXISTS chk_orders_status_allowed,
	ADD CONSTRAINT chk_orders_status_allowed
	CHECK (status IN ('DRAFT','PENDING','PRE_ORDER','APPROVED','PACKED_AND_WAITING_SHIPMENT','SHIPPED','CANCELED'));
`},
	{"chk orders.discount", `
ALTER TABLE orders
	DROP CONSTRAINT IF EXISTS chk_orders_discount_percent,
	ADD CONSTRAINT chk_orders_discount_percent
	CHECK (discount_percent >= 0 AND discount_percent <= 100);
`},
	{"chk order_items", `
ALTER TABLE order_items
	DROP CONSTRAINT IF EXISTS chk_order_items_quantity_gt_zero,
	ADD CONSTRAINT chk_order_items_quantity_gt_zero
	CHECK (quantity > 0 AND unit_price >= 0);
`},
	{"chk product_prices", `
ALTER TABLE product_prices
	DROP CONSTRAINT IF EXISTS chk_product_prices_non_negative,
	ADD CONSTRAINT chk_product_prices_non_negative
	CHECK (price >= 0 AND (valid_to IS NULL OR valid_to > valid_from));
`},
	{"chk purchase_order_items", `
ALTER TABLE purchase_order_items
	DROP CONSTRAINT IF EXISTS chk_purchase_order_items_quantities,
	ADD CONSTRAINT chk_purchase_order_items_quantities
	CHECK (quantity > 0 AND received_quantity >= 0 AND received_quantity <= quantity);
`},
	{"chk purchase_orders.status", `
ALTER TABLE purchase_orders
	DROP CONSTRAINT IF EXISTS chk_purchase_orders_status_allowed,
	ADD CONSTRAINT chk_purchase_orders_status_allowed
	CHECK (status IN ('OPEN','CLOSED','CANCELED'));
`},
}

var indexSteps = []step{
	// Коды и SKU уникальны без учёта регистра
	{"ux customers code", `CREATE UNIQUE INDEX IF NOT EXISTS ux_customers_code ON customers (lower(code));`},
	{"ux products sku", `CREATE UNIQUE INDEX IF NOT EXISTS ux_products_sku ON products (lower(sku));`},
	{"ux warehouses code", `CREATE UNIQUE INDEX IF NOT EXISTS ux_warehouses_code ON warehouses (lower(code));`},
	{"ux currencies code", `CREATE UNIQUE INDEX IF NOT EXISTS ux_currencies_code ON currencies (upper(code));`},
	// Не более одного склада по умолчанию и одной базовой валюты
	{"ux warehouses default", `CREATE UNIQUE INDEX IF NOT EXISTS ux_warehouses_single_default ON warehouses (is_default) WHERE is_default;`},
	{"ux currencies base", `CREATE UNIQUE INDEX IF NOT EXISTS ux_currencies_single_base ON currencies (is_base) WHERE is_base;`},
	{"ux order_items line", `CREATE UNIQUE INDEX IF NOT EXISTS ux_order_items_order_line ON order_items (order_id, line_no);`},
	{"ix orders customer_created", `CREATE INDEX IF NOT EXISTS ix_orders_customer_created ON orders (customer_id, created_at DESC);`},
	{"ix product_prices active", `CREATE INDEX IF NOT EXISTS ix_product_prices_active ON product_prices (product_id, valid_from DESC) WHERE is_active;`},
	{"ix purchase_order_items open", `CREATE INDEX IF NOT EXISTS ix_purchase_order_items_open ON purchase_order_items (product_id) WHERE received_quantity < quantity;`},
}

var fkSteps = []step{
	{"fk product_prices.product_id", `
ALTER TABLE product_prices
  DROP CONSTRAINT IF EXISTS fk_product_prices_product,
  ADD CONSTRAINT fk_product_prices_product
    FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE;
`},
	{"fk orders.customer_id", `
ALTER TABLE orders
  DROP CONSTRAINT IF EXISTS fk_orders_customer,
  ADD CONSTRAINT fk_orders_customer
    FOREIGN KEY (customer_id) REFERENCES customers(id) ON DELETE RESTRICT;
`},
	{"fk orders.currency_id", `
ALTER TABLE orders
  DROP CONSTRAINT IF EXISTS fk_orders_currency,
  ADD CONSTRAINT fk_orders_currency
    FOREIGN KEY (currency_id) REFERENCES currencies(id) ON DELETE RESTRICT;
`},
	{"fk order_items.order_id", `
ALTER TABLE order_items
  DROP CONSTRAINT IF EXISTS fk_order_items_order,
  ADD CONSTRAINT fk_order_items_order
    FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE;
`},
	{"fk order_items.product_id", `
ALTER TABLE order_items
  DROP CONSTRAINT IF EXISTS fk_order_items_product,
  ADD CONSTRAINT fk_order_items_product
    FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE RESTRICT;
`},
	{"fk order_items.warehouse_id", `
ALTER TABLE order_items
  DROP CONSTRAINT IF EXISTS fk_order_items_warehouse,
  ADD CONSTRAINT fk_order_items_warehouse
    FOREIGN KEY (warehouse_id) REFERENCES warehouses(id) ON DELETE RESTRICT;
`},
	{"fk order_shipping_infos.order_id", `
ALTER TABLE order_shipping_infos
  DROP CONSTRAINT IF EXISTS fk_order_shipping_infos_order,
  ADD CONSTRAINT fk_order_shipping_infos_order
    FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE;
`},
	{"fk customer_transactions.customer_id", `
ALTER TABLE customer_transactions
  DROP CONSTRAINT IF EXISTS fk_customer_transactions_customer,
  ADD CONSTRAINT fk_customer_transactions_customer
    FOREIGN KEY (customer_id) REFERENCES customers(id) ON DELETE RESTRICT;
`},
	{"fk inventory_items.product_id", `
ALTER TABLE inventory_items
  DROP CONSTRAINT IF EXISTS fk_inventory_items_product,
  ADD CONSTRAINT fk_inventory_items_product
    FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE RESTRICT;
`},
	{"fk inventory_items.warehouse_id", `
ALTER TABLE inventory_items
  DROP CONSTRAINT IF EXISTS fk_inventory_items_warehouse,
  ADD CONSTRAINT fk_inventory_items_warehouse
    FOREIGN KEY (warehouse_id) REFERENCES warehouses(id) ON DELETE RESTRICT;
`},
	{"fk purchase_order_items.purchase_order_id", `
ALTER TABLE purchase_order_items
  DROP CONSTRAINT IF EXISTS fk_purchase_order_items_order,
  ADD CONSTRAINT fk_purchase_order_items_order
    FOREIGN KEY (purchase_order_id) REFERENCES purchase_orders(id) ON DELETE CASCADE;
`},
	{"fk purchase_order_items.product_id", `
ALTER TABLE purchase_order_items
  DROP CONSTRAINT IF EXISTS fk_purchase_order_items_product,
  ADD CONSTRAINT fk_purchase_order_items_product
    FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE RESTRICT;
`},
}
