package payment

import "strings"

var InstructionMap = map[string][]string{
	// ========================
	// VIRTUAL ACCOUNT
	// ========================
	"va:bca": {
		"Buka aplikasi BCA Mobile, KlikBCA, atau ATM BCA",
		"Pilih menu Transfer → Virtual Account",
		"Masukkan nomor Virtual Account {{payment_code}}",
		"Pastikan nama penerima dan nominal donasi {{amount}} sudah sesuai",
		"Lakukan pembayaran dan simpan bukti transaksi",
	},
	"va:bni": {
		"Buka aplikasi BNI Mobile Banking atau ATM BNI",
		"Pilih menu Virtual Account Billing",
		"Masukkan nomor Virtual Account {{payment_code}}",
		"Periksa detail donasi dengan nominal {{amount}}",
		"Konfirmasi dan selesaikan pembayaran",
	},
	"va:bri": {
		"Buka aplikasi BRImo atau ATM BRI",
		"Pilih menu Pembayaran → BRIVA",
		"Masukkan nomor BRIVA {{payment_code}}",
		"Periksa nominal donasi {{amount}} lalu konfirmasi",
	},
	"va:mandiri": {
		"Buka aplikasi Livin' by Mandiri atau ATM Mandiri",
		"Pilih menu Bayar → Multi Payment",
		"Masukkan kode pembayaran {{payment_code}}",
		"Pastikan detail donasi dengan nominal {{amount}} sudah benar",
		"Selesaikan transaksi pembayaran",
	},
	"va:permata": {
		"Buka aplikasi PermataMobile X atau ATM Permata",
		"Pilih menu Pembayaran → Virtual Account",
		"Masukkan nomor Virtual Account {{payment_code}}",
		"Konfirmasi pembayaran sebesar {{amount}}",
	},

	// ========================
	// QRIS
	// ========================
	"qris": {
		"Buka aplikasi e-wallet atau mobile banking yang mendukung QRIS",
		"Pilih menu Scan / Bayar",
		"Pindai kode QR yang ditampilkan",
		"Periksa nominal donasi {{amount}}",
		"Konfirmasi dan selesaikan pembayaran",
	},

	// ========================
	// E-WALLET
	// ========================
	"ewallet:ovo": {
		"Buka aplikasi OVO",
		"Pastikan saldo mencukupi untuk donasi {{amount}}",
		"Konfirmasi pembayaran pada notifikasi yang muncul",
		"Masukkan PIN OVO untuk menyelesaikan pembayaran",
	},
	"ewallet:dana": {
		"Buka aplikasi DANA",
		"Pastikan saldo DANA mencukupi untuk donasi {{amount}}",
		"Konfirmasi pembayaran",
		"Masukkan PIN DANA untuk menyelesaikan transaksi",
	},
	"ewallet:gopay": {
		"Buka aplikasi Gojek atau GoPay",
		"Pastikan saldo GoPay mencukupi untuk donasi {{amount}}",
		"Konfirmasi pembayaran dan masukkan PIN",
	},
	"ewallet:shopeepay": {
		"Buka aplikasi Shopee",
		"Pastikan saldo ShopeePay mencukupi untuk donasi {{amount}}",
		"Konfirmasi pembayaran",
		"Masukkan PIN ShopeePay",
	},
	"ewallet:linkaja": {
		"Buka aplikasi LinkAja",
		"Pastikan saldo mencukupi untuk donasi {{amount}}",
		"Konfirmasi pembayaran",
		"Masukkan PIN untuk menyelesaikan transaksi",
	},
}

// GetInstructions returns the payer steps for a method code, accepting the
// same shorthands as ParseMethod.
func GetInstructions(methodCode string) []string {
	if m, err := ParseMethod(methodCode); err == nil {
		if steps, ok := InstructionMap[m.String()]; ok {
			return steps
		}
	}

	return []string{
		"Ikuti instruksi pembayaran yang tersedia pada halaman ini",
	}
}

type InstructionVars map[string]string

func InjectVariables(
	steps []string,
	vars InstructionVars,
) []string {
	result := make([]string, 0, len(steps))

	for _, step := range steps {
		updated := step
		for key, value := range vars {
			updated = strings.ReplaceAll(
				updated,
				"{{"+key+"}}",
				value,
			)
		}
		result = append(result, updated)
	}

	return result
}
