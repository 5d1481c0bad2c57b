package http

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ReceivingHandler recepción de órdenes de compra.
type ReceivingHandler struct {
	workflow *ledger.ReceivingWorkflow
	validate *validator.Validate
	log      zerolog.Logger
}

// NewReceivingHandler construye el handler.
func NewReceivingHandler(workflow *ledger.ReceivingWorkflow, log zerolog.Logger) *ReceivingHandler {
	return &ReceivingHandler{workflow: workflow, validate: validator.New(), log: log}
}

// Receive godoc
// @Summary      Recibir una orden de compra
// @Description  Reintentar tras PARTIAL_FAILURE aplica solo las líneas pendientes.
// @Tags         purchase-orders
// @Accept       json
// @Produce      json
// @Param        id    path  string              true  "ID de la orden"
// @Param        body  body  dto.ReceiveRequest  true  "ubicación, lote opcional y líneas"
// @Success      200   {object}  dto.ReceiptResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /api/ledger/purchase-orders/{id}/receive [post]
func (h *ReceivingHandler) Receive(c *fiber.Ctx) error {
	var in dto.ReceiveRequest
	if err := bind(c, h.validate, &in); err != nil {
		return writeError(c, h.log, err)
	}
	lines := make([]ledger.ReceiveLineInput, 0, len(in.Lines))
	for _, l := range in.Lines {
		expiry, err := parseDate("expiry_date", l.ExpiryDate)
		if err != nil {
			return writeError(c, h.log, err)
		}
		lines = append(lines, ledger.ReceiveLineInput{
			ProductID:  l.ProductID,
			Quantity:   l.Quantity,
			ExpiryDate: expiry,
			Sizes:      dto.ToSizes(l.Sizes),
		})
	}
	res, err := h.workflow.Receive(c.Context(), ledger.ReceiveInput{
		PurchaseOrderID: c.Params("id"),
		BatchNumber:     in.BatchNumber,
		LocationID:      in.LocationID,
		Lines:           lines,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewReceiptResponse(res.Receipt, res.Order))
}

// Receipt godoc
// @Summary      Progreso de recepción de una orden
// @Tags         purchase-orders
// @Produce      json
// @Param        id  path  string  true  "ID de la orden"
// @Success      200  {object}  dto.ReceiptResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/ledger/purchase-orders/{id}/receipt [get]
func (h *ReceivingHandler) Receipt(c *fiber.Ctx) error {
	r, err := h.workflow.Receipt(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewReceiptResponse(r, nil))
}

func movementResponses(list []*entity.Movement) []dto.MovementResponse {
	out := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, dto.NewMovementResponse(m))
	}
	return out
}
