// Package picturetext finds text trapped inside the pictures of a
// presentation using Tesseract OCR.
//
// Font analysis only sees text the deck renders as text. A slide that
// embeds a screenshot of a table, a scanned quote, or an exported chart
// carries words no font replacement can ever touch. Scanning the embedded
// pictures tells a reviewer where that text lives so it can be rebuilt as
// real text boxes.
//
// # Prerequisites
//
// Tesseract must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// The default language is English ("eng"); any installed Tesseract
// language code works.
//
// # Preprocessing
//
// Pictures are grayscaled before OCR. Tesseract needs a file path, so each
// picture is written to a temporary PNG that is removed when the scan of
// that picture completes.
//
// # Error Handling
//
// One unreadable or unrecognizable picture never fails a scan; it is
// reported with a note and the scan moves on. Scan only returns an error
// when the context is cancelled.
package picturetext
