package http

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/ledger"
)

// LedgerHandler expone lotes, ajustes, traslados y consultas de stock.
type LedgerHandler struct {
	svc      *ledger.Service
	jobs     ReconcileEnqueuer
	validate *validator.Validate
	log      zerolog.Logger
}

// NewLedgerHandler construye el handler. jobs puede ser nil.
func NewLedgerHandler(svc *ledger.Service, jobs ReconcileEnqueuer, log zerolog.Logger) *LedgerHandler {
	return &LedgerHandler{svc: svc, jobs: jobs, validate: validator.New(), log: log}
}

// CreateBatch godoc
// @Summary      Crear lote
// @Tags         batches
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateBatchRequest  true  "sizes o quantity"
// @Success      201   {object}  dto.BatchResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/ledger/batches [post]
func (h *LedgerHandler) CreateBatch(c *fiber.Ctx) error {
	var in dto.CreateBatchRequest
	if err := bind(c, h.validate, &in); err != nil {
		return writeError(c, h.log, err)
	}
	expiry, err := parseDate("expiry_date", in.ExpiryDate)
	if err != nil {
		return writeError(c, h.log, err)
	}
	batch, err := h.svc.Catalog.CreateBatch(c.Context(), ledger.CreateBatchInput{
		ProductID:   in.ProductID,
		SupplierID:  in.SupplierID,
		BatchNumber: in.BatchNumber,
		ExpiryDate:  expiry,
		Sizes:       dto.ToSizes(in.Sizes),
		Quantity:    in.Quantity,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewBatchResponse(batch))
}

// ListBatches godoc
// @Summary      Lotes de un producto
// @Tags         batches
// @Produce      json
// @Param        productId  path  string  true  "ID del producto"
// @Success      200  {array}   dto.BatchResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/ledger/products/{productId}/batches [get]
func (h *LedgerHandler) ListBatches(c *fiber.Ctx) error {
	list, err := h.svc.Catalog.ListBatches(c.Context(), c.Params("productId"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]dto.BatchResponse, 0, len(list))
	for _, b := range list {
		out = append(out, dto.NewBatchResponse(b))
	}
	return c.JSON(out)
}

// AvailableBatch godoc
// @Summary      Primer lote con stock disponible
// @Tags         batches
// @Produce      json
// @Param        productId  path   string  true   "ID del producto"
// @Param        size       query  string  false  "Talla"
// @Success      200  {object}  dto.BatchResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/ledger/products/{productId}/batches/available [get]
func (h *LedgerHandler) AvailableBatch(c *fiber.Ctx) error {
	batch, err := h.svc.Catalog.FindBatchWithAvailableQuantity(c.Context(), c.Params("productId"), c.Query("size"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewBatchResponse(batch))
}

// Adjust godoc
// @Summary      Ajustar cantidad de un lote
// @Description  Con location_id el ajuste también mueve el stock de la ubicación.
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustmentRequest  true  "delta distinto de cero"
// @Success      200   {object}  dto.BatchResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/ledger/adjustments [post]
func (h *LedgerHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustmentRequest
	if err := bind(c, h.validate, &in); err != nil {
		return writeError(c, h.log, err)
	}
	input := ledger.AdjustInput{
		ProductID:   in.ProductID,
		BatchNumber: in.BatchNumber,
		LocationID:  in.LocationID,
		Delta:       in.Delta,
		Size:        in.Size,
		Note:        in.Note,
	}
	adjust := h.svc.Engine.Adjust
	if in.LocationID != "" {
		adjust = h.svc.Engine.AdjustAtLocation
	}
	batch, err := adjust(c.Context(), input)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewBatchResponse(batch))
}

// StockIn godoc
// @Summary      Entrada de stock a una ubicación
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        body  body  dto.StockInRequest  true  "lote nuevo o existente"
// @Success      201   {object}  dto.BatchResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/ledger/stock-in [post]
func (h *LedgerHandler) StockIn(c *fiber.Ctx) error {
	var in dto.StockInRequest
	if err := bind(c, h.validate, &in); err != nil {
		return writeError(c, h.log, err)
	}
	expiry, err := parseDate("expiry_date", in.ExpiryDate)
	if err != nil {
		return writeError(c, h.log, err)
	}
	batch, err := h.svc.Engine.AddStock(c.Context(), ledger.AddStockInput{
		ProductID:   in.ProductID,
		LocationID:  in.LocationID,
		BatchNumber: in.BatchNumber,
		SupplierID:  in.SupplierID,
		ExpiryDate:  expiry,
		Sizes:       dto.ToSizes(in.Sizes),
		Quantity:    in.Quantity,
		Note:        in.Note,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewBatchResponse(batch))
}

// StockOut godoc
// @Summary      Salida de stock (FEFO)
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        body  body  dto.StockOutRequest  true  "cantidad positiva"
// @Success      200   {object}  dto.StockOutResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/ledger/stock-out [post]
func (h *LedgerHandler) StockOut(c *fiber.Ctx) error {
	var in dto.StockOutRequest
	if err := bind(c, h.validate, &in); err != nil {
		return writeError(c, h.log, err)
	}
	res, err := h.svc.Engine.StockOut(c.Context(), ledger.StockOutInput{
		ProductID:  in.ProductID,
		LocationID: in.LocationID,
		Quantity:   in.Quantity,
		Size:       in.Size,
		Note:       in.Note,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := dto.StockOutResponse{Record: dto.NewStockRecordResponse(res.Record)}
	for _, d := range res.Draws {
		out.Draws = append(out.Draws, dto.DrawResponse{BatchNumber: d.BatchNumber, Size: d.Size, Quantity: d.Quantity})
	}
	return c.JSON(out)
}

// Transfer godoc
// @Summary      Trasladar stock entre ubicaciones
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferRequest  true  "origen, destino y cantidad"
// @Success      200   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /api/ledger/transfers [post]
func (h *LedgerHandler) Transfer(c *fiber.Ctx) error {
	var in dto.TransferRequest
	if err := bind(c, h.validate, &in); err != nil {
		return writeError(c, h.log, err)
	}
	res, err := h.svc.Transfers.Transfer(c.Context(), ledger.TransferInput{
		ProductID:      in.ProductID,
		FromLocationID: in.FromLocationID,
		ToLocationID:   in.ToLocationID,
		Quantity:       in.Quantity,
		Note:           in.Note,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.TransferResponse{
		TransactionID: res.TransactionID,
		From:          dto.NewStockRecordResponse(res.From),
		To:            dto.NewStockRecordResponse(res.To),
	})
}

// ProductStock godoc
// @Summary      Stock por ubicación de un producto
// @Tags         stock
// @Produce      json
// @Param        productId    path   string  true   "ID del producto"
// @Param        location_id  query  string  false  "Solo esta ubicación"
// @Success      200  {object}  dto.ProductStockResponse
// @Router       /api/ledger/products/{productId}/stock [get]
func (h *LedgerHandler) ProductStock(c *fiber.Ctx) error {
	productID := c.Params("productId")
	if locationID := c.Query("location_id"); locationID != "" {
		rec, err := h.svc.Stock.Get(c.Context(), productID, locationID)
		if err != nil {
			return writeError(c, h.log, err)
		}
		return c.JSON(dto.NewStockRecordResponse(rec))
	}
	records, err := h.svc.Stock.ListByProduct(c.Context(), productID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := dto.ProductStockResponse{ProductID: productID, Locations: make([]dto.StockRecordResponse, 0, len(records))}
	for _, r := range records {
		out.Total += r.Quantity
		out.Locations = append(out.Locations, dto.NewStockRecordResponse(r))
	}
	return c.JSON(out)
}

// ProductLowStock godoc
// @Summary      Indica si el producto está en o bajo su umbral
// @Tags         stock
// @Produce      json
// @Param        productId  path  string  true  "ID del producto"
// @Success      200  {object}  dto.LowStockResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/ledger/products/{productId}/low-stock [get]
func (h *LedgerHandler) ProductLowStock(c *fiber.Ctx) error {
	productID := c.Params("productId")
	low, total, err := h.svc.LowStock.IsLow(c.Context(), productID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.LowStockResponse{ProductID: productID, Total: total, Low: low})
}

// LowStock godoc
// @Summary      Productos con stock bajo
// @Tags         stock
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/ledger/low-stock [get]
func (h *LedgerHandler) LowStock(c *fiber.Ctx) error {
	items, err := h.svc.LowStock.ListLow(c.Context())
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]dto.LowStockResponse, 0, len(items))
	for _, it := range items {
		out = append(out, dto.LowStockResponse{
			ProductID: it.ProductID,
			SKU:       it.SKU,
			Name:      it.Name,
			Total:     it.Total,
			Threshold: it.Threshold,
			Low:       true,
		})
	}
	return c.JSON(fiber.Map{
		"total":    len(out),
		"products": out,
	})
}

// Reconciliation godoc
// @Summary      Conciliar lotes contra ubicaciones
// @Tags         stock
// @Produce      json
// @Param        productId  path  string  true  "ID del producto"
// @Success      200  {object}  dto.ReconciliationResponse
// @Router       /api/ledger/products/{productId}/reconciliation [get]
func (h *LedgerHandler) Reconciliation(c *fiber.Ctx) error {
	d, err := h.svc.Reconciler.Check(c.Context(), c.Params("productId"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ReconciliationResponse{
		ProductID:     d.ProductID,
		BatchTotal:    d.BatchTotal,
		LocationTotal: d.LocationTotal,
		Difference:    d.Difference(),
		Balanced:      d.Balanced(),
	})
}

// RunReconciliation godoc
// @Summary      Conciliar todo el catálogo
// @Description  Con worker configurado encola la tarea (202); si no, concilia en línea y devuelve los descuadres.
// @Tags         stock
// @Produce      json
// @Success      200  {array}   dto.ReconciliationResponse
// @Success      202  {object}  map[string]string
// @Router       /api/ledger/reconciliation [post]
func (h *LedgerHandler) RunReconciliation(c *fiber.Ctx) error {
	if h.jobs != nil {
		id, err := h.jobs.EnqueueReconcile(c.Context(), "")
		if err != nil {
			return writeError(c, h.log, err)
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"task_id": id})
	}
	list, err := h.svc.Reconciler.CheckAll(c.Context())
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]dto.ReconciliationResponse, 0, len(list))
	for _, d := range list {
		out = append(out, dto.ReconciliationResponse{
			ProductID:     d.ProductID,
			BatchTotal:    d.BatchTotal,
			LocationTotal: d.LocationTotal,
			Difference:    d.Difference(),
			Balanced:      d.Balanced(),
		})
	}
	return c.JSON(out)
}

// Movements godoc
// @Summary      Diario de movimientos de un producto
// @Tags         movements
// @Produce      json
// @Param        productId  path   string  true   "ID del producto"
// @Param        limit      query  int     false  "máx. 500"
// @Param        offset     query  int     false  "desplazamiento"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/ledger/products/{productId}/movements [get]
func (h *LedgerHandler) Movements(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return writeError(c, h.log, errInvalidBody)
	}
	if err := h.validate.Struct(page); err != nil {
		return writeError(c, h.log, validationError(err))
	}
	page.DefaultPage()
	list, err := h.svc.History.ListMovements(c.Context(), c.Params("productId"), page.Limit, page.Offset)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(fiber.Map{
		"page":      dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
		"movements": movementResponses(list),
	})
}

// PendingMovements godoc
// @Summary      Pasos de traslado o recepción sin aplicar
// @Tags         movements
// @Produce      json
// @Param        limit  query  int  false  "máx. 500"
// @Success      200  {array}  dto.MovementResponse
// @Router       /api/ledger/movements/pending [get]
func (h *LedgerHandler) PendingMovements(c *fiber.Ctx) error {
	list, err := h.svc.History.ListPending(c.Context(), c.QueryInt("limit", 0))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(movementResponses(list))
}
