package billing

import (
	"context"
	"fmt"

	"github.com/jhoicas/retail-kpi-api/internal/domain/repository"
)

// PDFUseCase genera el comprobante PDF de una factura.
type PDFUseCase struct {
	query     *BillQueryUseCase
	generator ReceiptPDFGenerator
}

// NewPDFUseCase construye el caso de uso inyectando sus dependencias.
func NewPDFUseCase(billRepo repository.BillRepository, generator ReceiptPDFGenerator) *PDFUseCase {
	return &PDFUseCase{query: NewBillQueryUseCase(billRepo), generator: generator}
}

// DownloadBillPDF aplica las mismas reglas de acceso que la lectura de la factura.
//
// Retorna:
//   - (pdfBytes, filename, nil)  si todo sale bien.
//   - *domain.NotFoundError      si la factura no existe.
//   - domain.ErrForbidden        si no es del usuario y no es manager.
func (uc *PDFUseCase) DownloadBillPDF(ctx context.Context, actor Actor, billID int64) ([]byte, string, error) {
	bill, err := uc.query.load(ctx, actor, billID)
	if err != nil {
		return nil, "", err
	}
	pdf, err := uc.generator.GenerateBillPDF(ctx, bill)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generate bill %d: %w", billID, err)
	}
	return pdf, bill.BillNumber + ".pdf", nil
}
