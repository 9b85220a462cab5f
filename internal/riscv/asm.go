package riscv

import "fmt"

// CSRRead returns a csrr instruction that reads the CSR into rd.
func CSRRead(rd Reg, csr CSR) string {
	return fmt.Sprintf("csrr %s, %s # %s", rd, csr.Hex(), csr)
}

// CSRWrite returns a csrw instruction that writes rs to the CSR.
func CSRWrite(csr CSR, rs Reg) string {
	return fmt.Sprintf("csrw %s, %s # %s", csr.Hex(), rs, csr)
}

// CSRSwap returns a csrrw instruction that swaps rs with the CSR, the old value is stored in rd.
func CSRSwap(rd Reg, csr CSR, rs Reg) string {
	return fmt.Sprintf("csrrw %s, %s, %s # %s", rd, csr.Hex(), rs, csr)
}

// CSRClear returns a csrrc instruction that clears the bits set in rs.
func CSRClear(rd Reg, csr CSR, rs Reg) string {
	return fmt.Sprintf("csrrc %s, %s, %s # %s", rd, csr.Hex(), rs, csr)
}
