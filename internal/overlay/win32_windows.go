//go:build windows

package overlay

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32DLL = windows.NewLazySystemDLL("user32.dll")
	gdi32DLL  = windows.NewLazySystemDLL("gdi32.dll")

	procRegisterClassExW           = user32DLL.NewProc("RegisterClassExW")
	procCreateWindowExW            = user32DLL.NewProc("CreateWindowExW")
	procDefWindowProcW             = user32DLL.NewProc("DefWindowProcW")
	procDestroyWindow              = user32DLL.NewProc("DestroyWindow")
	procShowWindow                 = user32DLL.NewProc("ShowWindow")
	procUpdateWindow               = user32DLL.NewProc("UpdateWindow")
	procIsWindow                   = user32DLL.NewProc("IsWindow")
	procSetWindowPos               = user32DLL.NewProc("SetWindowPos")
	procGetWindowLongPtrW          = user32DLL.NewProc("GetWindowLongPtrW")
	procSetWindowLongPtrW          = user32DLL.NewProc("SetWindowLongPtrW")
	procGetWindowLongW             = user32DLL.NewProc("GetWindowLongW")
	procSetWindowLongW             = user32DLL.NewProc("SetWindowLongW")
	procSetLayeredWindowAttributes = user32DLL.NewProc("SetLayeredWindowAttributes")
	procInvalidateRect             = user32DLL.NewProc("InvalidateRect")
	procBeginPaint                 = user32DLL.NewProc("BeginPaint")
	procEndPaint                   = user32DLL.NewProc("EndPaint")
	procFillRect                   = user32DLL.NewProc("FillRect")
	procDrawTextW                  = user32DLL.NewProc("DrawTextW")
	procGetDC                      = user32DLL.NewProc("GetDC")
	procReleaseDC                  = user32DLL.NewProc("ReleaseDC")
	procSystemParametersInfoW      = user32DLL.NewProc("SystemParametersInfoW")
	procGetSystemMetrics           = user32DLL.NewProc("GetSystemMetrics")
	procPeekMessageW               = user32DLL.NewProc("PeekMessageW")
	procTranslateMessage           = user32DLL.NewProc("TranslateMessage")
	procDispatchMessageW           = user32DLL.NewProc("DispatchMessageW")

	procCreateSolidBrush = gdi32DLL.NewProc("CreateSolidBrush")
	procCreateFontW      = gdi32DLL.NewProc("CreateFontW")
	procSelectObject     = gdi32DLL.NewProc("SelectObject")
	procDeleteObject     = gdi32DLL.NewProc("DeleteObject")
	procSetTextColor     = gdi32DLL.NewProc("SetTextColor")
	procSetBkMode        = gdi32DLL.NewProc("SetBkMode")
)

const (
	wsPopup = 0x80000000

	wsExTopmost     = 0x00000008
	wsExTransparent = 0x00000020
	wsExToolWindow  = 0x00000080
	wsExLayered     = 0x00080000
	wsExNoActivate  = 0x08000000

	gwlExStyle  = ^uintptr(19) // -20
	hwndTopmost = ^uintptr(0)  // -1

	swpNoSize     = 0x0001
	swpNoMove     = 0x0002
	swpNoActivate = 0x0010

	swShowNoActivate = 4
	lwaAlpha         = 0x00000002

	spiGetWorkArea = 0x0030
	smCxScreen     = 0
	smCyScreen     = 1

	wmDestroy       = 0x0002
	wmPaint         = 0x000F
	wmEraseBkgnd    = 0x0014
	wmMouseActivate = 0x0021
	maNoActivate    = 3

	pmRemove = 0x0001

	dtLeft        = 0x00000000
	dtRight       = 0x00000002
	dtVCenter     = 0x00000004
	dtWordBreak   = 0x00000010
	dtSingleLine  = 0x00000020
	dtNoPrefix    = 0x00000800
	dtCalcRect    = 0x00000400
	dtEndEllipsis = 0x00008000

	bkTransparent    = 1
	fwNormal         = 400
	fwBold           = 700
	defaultCharset   = 1
	clearTypeQuality = 5

	overlayClassName = "SnapcapOverlay"

	// maxMessagesPerPump bounds one PumpMessages call so a message storm
	// cannot starve the animation tick.
	maxMessagesPerPump = 64
)

// Layout in pixels.
const (
	accentBarHeight    = 4
	paddingX           = 20
	paddingY           = 15
	headerHeight       = 24
	headerGap          = 10
	separatorHeight    = 1
	separatorGap       = 12
	messageGap         = 10
	countdownBarHeight = 2
	messageWrapInset   = 50

	titleFontPx   = 19 // Consolas 14pt at 96 DPI
	stampFontPx   = 13 // Consolas 10pt
	messageFontPx = 17 // Segoe UI 13pt
)

type rect32 struct {
	left, top, right, bottom int32
}

type paintStruct struct {
	hdc         uintptr
	fErase      int32
	rcPaint     rect32
	fRestore    int32
	fIncUpdate  int32
	rgbReserved [32]byte
}

type wndClassExW struct {
	cbSize        uint32
	style         uint32
	lpfnWndProc   uintptr
	cbClsExtra    int32
	cbWndExtra    int32
	hInstance     windows.Handle
	hIcon         windows.Handle
	hCursor       windows.Handle
	hbrBackground windows.Handle
	lpszMenuName  *uint16
	lpszClassName *uint16
	hIconSm       windows.Handle
}

type winMsg struct {
	hWnd     uintptr
	message  uint32
	wParam   uintptr
	lParam   uintptr
	time     uint32
	ptX      int32
	ptY      int32
	lPrivate uint32
}

var (
	registerOnce sync.Once
	registerErr  error

	// overlayWndProc is created once per process and never freed.
	overlayWndProc = windows.NewCallback(overlayWindowProc)

	// liveWindows maps HWND to window state. Only the UI thread touches it:
	// window procedures run on the thread that created the window.
	liveWindows = map[uintptr]*win32Window{}
)

// Win32Backend renders overlays as layered GDI popup windows.
type Win32Backend struct{}

// NewPlatformBackend returns the Win32 backend.
func NewPlatformBackend() Backend { return &Win32Backend{} }

func registerOverlayClass() error {
	registerOnce.Do(func() {
		if err := user32DLL.Load(); err != nil {
			registerErr = fmt.Errorf("user32.dll is unavailable: %w", err)
			return
		}
		if err := gdi32DLL.Load(); err != nil {
			registerErr = fmt.Errorf("gdi32.dll is unavailable: %w", err)
			return
		}
		className, err := windows.UTF16PtrFromString(overlayClassName)
		if err != nil {
			registerErr = err
			return
		}
		var module windows.Handle
		if err := windows.GetModuleHandleEx(0, nil, &module); err != nil {
			registerErr = fmt.Errorf("GetModuleHandleEx: %w", err)
			return
		}
		wc := wndClassExW{
			lpfnWndProc:   overlayWndProc,
			hInstance:     module,
			lpszClassName: className,
		}
		wc.cbSize = uint32(unsafe.Sizeof(wc))
		atom, _, callErr := procRegisterClassExW.Call(uintptr(unsafe.Pointer(&wc)))
		if atom == 0 {
			registerErr = fmt.Errorf("RegisterClassExW: %w", lastError(callErr))
		}
	})
	return registerErr
}

func (*Win32Backend) WorkArea() (Rect, error) {
	var r rect32
	ok, _, callErr := procSystemParametersInfoW.Call(spiGetWorkArea, 0, uintptr(unsafe.Pointer(&r)), 0)
	if ok != 0 && r.right > r.left && r.bottom > r.top {
		return Rect{Left: int(r.left), Top: int(r.top), Right: int(r.right), Bottom: int(r.bottom)}, nil
	}
	cx, _, _ := procGetSystemMetrics.Call(smCxScreen)
	cy, _, _ := procGetSystemMetrics.Call(smCyScreen)
	if cx == 0 || cy == 0 {
		return Rect{}, fmt.Errorf("SystemParametersInfoW(SPI_GETWORKAREA): %w", lastError(callErr))
	}
	return Rect{Right: int(cx), Bottom: int(cy)}, nil
}

func (*Win32Backend) MeasureHeight(c Content, width int) int {
	chrome := accentBarHeight + paddingY + headerHeight + headerGap + separatorHeight +
		separatorGap + messageGap + paddingY + countdownBarHeight

	hdc, _, _ := procGetDC.Call(0)
	if hdc == 0 {
		return chrome + messageFontPx
	}
	defer procReleaseDC.Call(0, hdc)

	font := createFont(messageFontPx, fwBold, "Segoe UI")
	if font != 0 {
		old, _, _ := procSelectObject.Call(hdc, font)
		defer func() {
			procSelectObject.Call(hdc, old)
			procDeleteObject.Call(font)
		}()
	}

	r := rect32{right: int32(max(1, width-messageWrapInset))}
	drawText(hdc, c.Message, &r, dtLeft|dtWordBreak|dtNoPrefix|dtCalcRect)
	return chrome + int(r.bottom-r.top)
}

func (*Win32Backend) CreateWindow(c Content, bounds Rect) (Window, error) {
	if err := registerOverlayClass(); err != nil {
		return nil, err
	}
	className, _ := windows.UTF16PtrFromString(overlayClassName)
	hwnd, _, callErr := procCreateWindowExW.Call(
		wsExTopmost,
		uintptr(unsafe.Pointer(className)),
		0,
		wsPopup,
		uintptr(bounds.Left), uintptr(bounds.Top),
		uintptr(bounds.Width()), uintptr(bounds.Height()),
		0, 0, 0, 0,
	)
	if hwnd == 0 {
		return nil, fmt.Errorf("CreateWindowExW: %w", lastError(callErr))
	}

	w := &win32Window{
		hwnd:      hwnd,
		content:   c,
		width:     bounds.Width(),
		height:    bounds.Height(),
		ratio:     1,
		titleFont: createFont(titleFontPx, fwBold, "Consolas"),
		stampFont: createFont(stampFontPx, fwNormal, "Consolas"),
		msgFont:   createFont(messageFontPx, fwBold, "Segoe UI"),
	}
	liveWindows[hwnd] = w
	return w, nil
}

func (*Win32Backend) PumpMessages() {
	for range maxMessagesPerPump {
		var msg winMsg
		ret, _, _ := procPeekMessageW.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0, pmRemove)
		if ret == 0 {
			return
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&msg)))
		procDispatchMessageW.Call(uintptr(unsafe.Pointer(&msg)))
	}
}

// win32Window implements Window and Stealth.
type win32Window struct {
	hwnd    uintptr
	content Content
	width   int
	height  int
	ratio   float64

	titleFont uintptr
	stampFont uintptr
	msgFont   uintptr
}

func (w *win32Window) alive() error {
	if w.hwnd == 0 {
		return ErrWindowGone
	}
	if ok, _, _ := procIsWindow.Call(w.hwnd); ok == 0 {
		return ErrWindowGone
	}
	return nil
}

func (w *win32Window) Show() error {
	if err := w.alive(); err != nil {
		return err
	}
	procShowWindow.Call(w.hwnd, swShowNoActivate)
	procUpdateWindow.Call(w.hwnd)
	return nil
}

func (w *win32Window) SetOpacity(alpha float64) error {
	if err := w.alive(); err != nil {
		return err
	}
	value := byte(min(max(alpha, 0), 1) * 255)
	ok, _, callErr := procSetLayeredWindowAttributes.Call(w.hwnd, 0, uintptr(value), lwaAlpha)
	if ok == 0 {
		return fmt.Errorf("SetLayeredWindowAttributes: %w", lastError(callErr))
	}
	return nil
}

func (w *win32Window) SetCountdown(ratio float64) error {
	if err := w.alive(); err != nil {
		return err
	}
	w.ratio = min(max(ratio, 0), 1)
	bar := rect32{top: int32(w.height - countdownBarHeight), right: int32(w.width), bottom: int32(w.height)}
	procInvalidateRect.Call(w.hwnd, uintptr(unsafe.Pointer(&bar)), 0)
	return nil
}

func (w *win32Window) Destroy() error {
	if w.hwnd == 0 {
		return ErrWindowGone
	}
	hwnd := w.hwnd
	w.hwnd = 0
	delete(liveWindows, hwnd)
	for _, font := range []uintptr{w.titleFont, w.stampFont, w.msgFont} {
		if font != 0 {
			procDeleteObject.Call(font)
		}
	}
	ok, _, callErr := procDestroyWindow.Call(hwnd)
	if ok == 0 {
		return fmt.Errorf("DestroyWindow: %w", lastError(callErr))
	}
	return nil
}

func (w *win32Window) SetNonActivating() error { return w.updateExStyle(wsExNoActivate, 0) }

func (w *win32Window) HideFromSwitcher() error { return w.updateExStyle(wsExToolWindow, 0) }

func (w *win32Window) SetLayered() error { return w.updateExStyle(wsExLayered, 0) }

func (w *win32Window) SetClickThrough(enabled bool) error {
	if enabled {
		return w.updateExStyle(wsExTransparent, 0)
	}
	return w.updateExStyle(0, wsExTransparent)
}

func (w *win32Window) SetTopmostNoActivate() error {
	if err := w.alive(); err != nil {
		return err
	}
	ok, _, callErr := procSetWindowPos.Call(w.hwnd, hwndTopmost, 0, 0, 0, 0, swpNoMove|swpNoSize|swpNoActivate)
	if ok == 0 {
		return fmt.Errorf("SetWindowPos(HWND_TOPMOST): %w", lastError(callErr))
	}
	return nil
}

func (w *win32Window) updateExStyle(set, clear uintptr) error {
	if err := w.alive(); err != nil {
		return err
	}
	current, err := getWindowLong(w.hwnd, gwlExStyle)
	if err != nil {
		return err
	}
	next := (current | set) &^ clear
	if next == current {
		return nil
	}
	return setWindowLong(w.hwnd, gwlExStyle, next)
}

// GetWindowLongPtrW only exists in 64-bit user32; 32-bit builds use the
// plain variants.
func getWindowLong(hwnd, index uintptr) (uintptr, error) {
	proc := procGetWindowLongPtrW
	if proc.Find() != nil {
		proc = procGetWindowLongW
	}
	ret, _, callErr := proc.Call(hwnd, index)
	if ret == 0 && callErr != syscall.Errno(0) {
		return 0, fmt.Errorf("GetWindowLong: %w", callErr)
	}
	return ret, nil
}

func setWindowLong(hwnd, index, value uintptr) error {
	proc := procSetWindowLongPtrW
	if proc.Find() != nil {
		proc = procSetWindowLongW
	}
	ret, _, callErr := proc.Call(hwnd, index, value)
	if ret == 0 && callErr != syscall.Errno(0) {
		return fmt.Errorf("SetWindowLong: %w", callErr)
	}
	return nil
}

func overlayWindowProc(hwnd uintptr, msg uintptr, wParam uintptr, lParam uintptr) uintptr {
	switch uint32(msg) {
	case wmMouseActivate:
		return maNoActivate
	case wmEraseBkgnd:
		return 1
	case wmPaint:
		if w, ok := liveWindows[hwnd]; ok {
			w.paint()
			return 0
		}
	case wmDestroy:
		delete(liveWindows, hwnd)
	}
	ret, _, _ := procDefWindowProcW.Call(hwnd, msg, wParam, lParam)
	return ret
}

func (w *win32Window) paint() {
	var ps paintStruct
	hdc, _, _ := procBeginPaint.Call(w.hwnd, uintptr(unsafe.Pointer(&ps)))
	if hdc == 0 {
		return
	}
	defer procEndPaint.Call(w.hwnd, uintptr(unsafe.Pointer(&ps)))

	c := w.content
	accent := c.Palette.Accent(c.Severity)
	width, height := int32(w.width), int32(w.height)

	fillRect(hdc, rect32{right: width, bottom: height}, c.Palette.Background)
	fillRect(hdc, rect32{right: width, bottom: accentBarHeight}, accent)

	procSetBkMode.Call(hdc, bkTransparent)

	top := int32(accentBarHeight + paddingY)
	header := rect32{left: paddingX, top: top, right: width - paddingX, bottom: top + headerHeight}
	w.text(hdc, w.stampFont, c.Palette.TextDim, c.Timestamp, header, dtRight|dtSingleLine|dtVCenter|dtNoPrefix)
	titleRect := header
	titleRect.right -= 80
	w.text(hdc, w.titleFont, accent, c.Icon+"  "+c.Title, titleRect, dtLeft|dtSingleLine|dtVCenter|dtNoPrefix|dtEndEllipsis)

	top = header.bottom + headerGap
	fillRect(hdc, rect32{left: paddingX, top: top, right: width - paddingX, bottom: top + separatorHeight}, c.Palette.Border)

	top += separatorHeight + separatorGap
	body := rect32{left: paddingX, top: top, right: width - messageWrapInset + paddingX, bottom: height - countdownBarHeight - paddingY}
	w.text(hdc, w.msgFont, c.Palette.MessageColor(), c.Message, body, dtLeft|dtWordBreak|dtNoPrefix)

	barTop := height - countdownBarHeight
	fillRect(hdc, rect32{top: barTop, right: width, bottom: height}, c.Palette.Background)
	if barWidth := int32(float64(width) * w.ratio); barWidth > 0 {
		fillRect(hdc, rect32{top: barTop, right: barWidth, bottom: height}, accent)
	}
}

func (w *win32Window) text(hdc, font uintptr, color Color, s string, r rect32, format uintptr) {
	if font != 0 {
		old, _, _ := procSelectObject.Call(hdc, font)
		defer procSelectObject.Call(hdc, old)
	}
	procSetTextColor.Call(hdc, colorRef(color))
	drawText(hdc, s, &r, format)
}

func drawText(hdc uintptr, s string, r *rect32, format uintptr) {
	text, err := windows.UTF16FromString(strings.ReplaceAll(s, "\x00", ""))
	if err != nil || len(text) <= 1 {
		return
	}
	procDrawTextW.Call(hdc, uintptr(unsafe.Pointer(&text[0])), uintptr(len(text)-1), uintptr(unsafe.Pointer(r)), format)
}

func fillRect(hdc uintptr, r rect32, color Color) {
	brush, _, _ := procCreateSolidBrush.Call(colorRef(color))
	if brush == 0 {
		return
	}
	procFillRect.Call(hdc, uintptr(unsafe.Pointer(&r)), brush)
	procDeleteObject.Call(brush)
}

func createFont(px int, weight int, face string) uintptr {
	name, err := windows.UTF16PtrFromString(face)
	if err != nil {
		return 0
	}
	font, _, _ := procCreateFontW.Call(
		uintptr(int32(-px)), 0, 0, 0,
		uintptr(weight), 0, 0, 0,
		defaultCharset, 0, 0, clearTypeQuality, 0,
		uintptr(unsafe.Pointer(name)),
	)
	return font
}

// colorRef converts 0xRRGGBB to a COLORREF (0x00BBGGRR).
func colorRef(c Color) uintptr {
	r, g, b := c.RGB()
	return uintptr(r) | uintptr(g)<<8 | uintptr(b)<<16
}

func lastError(err error) error {
	if err == nil || errors.Is(err, syscall.Errno(0)) {
		return errors.New("unknown error")
	}
	return err
}
