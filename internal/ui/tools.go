package ui

import (
	"fmt"
	"image/color"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"PDFMarkup/internal/editor"
	"PDFMarkup/internal/state"
)

var toolNames = []struct {
	tool  state.Tool
	label string
}{
	{state.ToolSelect, "Select"},
	{state.ToolBlur, "Blur"},
	{state.ToolErase, "Erase"},
	{state.ToolText, "Text"},
}

var fontFamilies = []string{"Arial", "Helvetica", "Times New Roman", "Courier New"}

// Text colour presets. Anything else goes through the colour picker.
var textColors = []color.NRGBA{
	{A: 255},
	{R: 220, G: 38, B: 38, A: 255},
	{R: 22, G: 163, B: 74, A: 255},
	{R: 37, G: 99, B: 235, A: 255},
	{R: 255, G: 255, B: 255, A: 255},
}

// --- Toolbar ---

type toolbar struct {
	content fyne.CanvasObject
	tools   *widget.RadioGroup
	export  *widget.Button
}

func newToolbar(a *App) *toolbar {
	t := &toolbar{}

	labels := make([]string, len(toolNames))
	for i, tn := range toolNames {
		labels[i] = tn.label
	}
	t.tools = widget.NewRadioGroup(labels, func(label string) {
		for _, tn := range toolNames {
			if tn.label == label {
				a.setTool(tn.tool)
				return
			}
		}
	})
	t.tools.Horizontal = true
	t.tools.Required = true
	t.tools.SetSelected(labels[0])

	open := widget.NewButtonWithIcon("Open", theme.FolderOpenIcon(), a.openDocument)
	t.export = widget.NewButtonWithIcon("Export", theme.DocumentSaveIcon(), a.exportDocument)

	t.content = container.NewHBox(
		open,
		t.export,
		widget.NewSeparator(),
		widget.NewLabel("Tool:"),
		t.tools,
		layout.NewSpacer(),
	)
	return t
}

func (t *toolbar) selectTool(tool state.Tool) {
	for _, tn := range toolNames {
		if tn.tool == tool {
			t.tools.SetSelected(tn.label)
		}
	}
}

func (t *toolbar) update(snap editor.Snapshot) {
	if !snap.HasDocument || snap.Exporting {
		t.export.Disable()
	} else {
		t.export.Enable()
	}
}

// --- Page navigation and zoom ---

type navBar struct {
	content fyne.CanvasObject
	prev    *widget.Button
	next    *widget.Button
	page    *widget.Entry
	total   *widget.Label
	zoom    *widget.Label
	clear   *widget.Button
}

func newNavBar(a *App) *navBar {
	n := &navBar{
		prev:  widget.NewButtonWithIcon("", theme.NavigateBackIcon(), a.prevPage),
		next:  widget.NewButtonWithIcon("", theme.NavigateNextIcon(), a.nextPage),
		page:  widget.NewEntry(),
		total: widget.NewLabel("of 0"),
		zoom:  widget.NewLabel("Zoom: 100%"),
		clear: widget.NewButtonWithIcon("Clear page", theme.DeleteIcon(), a.clearPage),
	}
	n.page.OnSubmitted = func(text string) {
		page, err := strconv.Atoi(text)
		if err != nil {
			a.refreshNav()
			return
		}
		a.setPage(page)
	}
	pageBox := container.New(layout.NewGridWrapLayout(fyne.NewSize(56, n.page.MinSize().Height)), n.page)

	n.content = container.NewHBox(
		n.prev,
		widget.NewLabel("Page"),
		pageBox,
		n.total,
		n.next,
		layout.NewSpacer(),
		n.clear,
		widget.NewSeparator(),
		widget.NewButtonWithIcon("", theme.ZoomOutIcon(), a.zoomOut),
		n.zoom,
		widget.NewButtonWithIcon("", theme.ZoomInIcon(), a.zoomIn),
		widget.NewButtonWithIcon("Fit width", theme.ViewFullScreenIcon(), a.fitToWidth),
	)
	return n
}

func (n *navBar) update(snap editor.Snapshot) {
	n.page.SetText(strconv.Itoa(snap.Page))
	n.total.SetText(fmt.Sprintf("of %d", snap.TotalPages))
	n.zoom.SetText(fmt.Sprintf("Zoom: %d%%", snap.Zoom))

	setEnabled(n.prev, snap.HasDocument && snap.Page > 1)
	setEnabled(n.next, snap.HasDocument && snap.Page < snap.TotalPages)
	setEnabled(n.clear, snap.HasDocument)
}

func setEnabled(w fyne.Disableable, enabled bool) {
	if enabled {
		w.Enable()
	} else {
		w.Disable()
	}
}

// --- Tool settings ---

type settingsPanel struct {
	content fyne.CanvasObject
	title   *widget.Label
	blur    *fyne.Container
	text    *fyne.Container
	erase   *fyne.Container
	color   *widget.Label
}

func newSettingsPanel(a *App) *settingsPanel {
	p := &settingsPanel{title: widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})}
	current := a.session.Settings()
	logInvalid := func(err error) {
		if err != nil {
			a.logger.Warn("settings update rejected", zap.Error(err))
		}
	}

	p.blur = container.NewVBox(
		labeledSlider("Blur intensity", "%d", 1, 10, current.Blur.Intensity, func(v int) {
			logInvalid(a.session.UpdateBlur(state.BlurPatch{Intensity: state.Int(v)}))
		}),
		labeledSlider("Brush size", "%dpx", 5, 50, current.Blur.BrushSize, func(v int) {
			logInvalid(a.session.UpdateBlur(state.BlurPatch{BrushSize: state.Int(v)}))
		}),
	)

	p.erase = container.NewVBox(
		labeledSlider("Eraser size", "%dpx", 5, 50, current.Erase.Size, func(v int) {
			logInvalid(a.session.UpdateErase(state.ErasePatch{Size: state.Int(v)}))
		}),
	)

	sizes := make([]string, len(state.FontSizes))
	for i, s := range state.FontSizes {
		sizes[i] = fmt.Sprintf("%dpx", s)
	}
	sizeSelect := widget.NewSelect(sizes, func(choice string) {
		var v int
		if _, err := fmt.Sscanf(choice, "%dpx", &v); err == nil {
			logInvalid(a.session.UpdateText(state.TextPatch{FontSize: state.Int(v)}))
		}
	})
	sizeSelect.SetSelected(fmt.Sprintf("%dpx", current.Text.FontSize))

	familySelect := widget.NewSelect(fontFamilies, func(choice string) {
		logInvalid(a.session.UpdateText(state.TextPatch{FontFamily: state.String(choice)}))
	})
	familySelect.SetSelected(current.Text.FontFamily)

	p.color = widget.NewLabel(current.Text.Color)
	setColor := func(c color.Color) {
		hex := toHex(c)
		if err := a.session.UpdateText(state.TextPatch{Color: state.String(hex)}); err != nil {
			logInvalid(err)
			return
		}
		p.color.SetText(hex)
	}
	swatches := container.NewHBox()
	for _, c := range textColors {
		swatches.Add(newColorSwatch(c, setColor))
	}
	pick := widget.NewButtonWithIcon("", theme.ColorPaletteIcon(), func() {
		picker := dialog.NewColorPicker("Text colour", "Pick a colour for new text", setColor, a.window)
		picker.Advanced = true
		picker.Show()
	})

	p.text = container.NewVBox(
		widget.NewLabel("Font size"),
		sizeSelect,
		widget.NewLabel("Font"),
		familySelect,
		widget.NewLabel("Colour"),
		container.NewHBox(swatches, pick),
		p.color,
	)

	box := container.NewVBox(p.title, p.blur, p.text, p.erase)
	p.content = container.New(layout.NewGridWrapLayout(fyne.NewSize(220, 320)), box)
	return p
}

// show displays the settings of tool. Select has none, so the panel hides.
func (p *settingsPanel) show(tool state.Tool) {
	p.blur.Hide()
	p.text.Hide()
	p.erase.Hide()

	switch tool {
	case state.ToolBlur:
		p.blur.Show()
	case state.ToolText:
		p.text.Show()
	case state.ToolErase:
		p.erase.Show()
	default:
		p.content.Hide()
		return
	}
	p.title.SetText(fmt.Sprintf("%s settings", toolLabel(tool)))
	p.content.Show()
}

func toolLabel(tool state.Tool) string {
	for _, tn := range toolNames {
		if tn.tool == tool {
			return tn.label
		}
	}
	return string(tool)
}

func labeledSlider(name, format string, lo, hi, value int, changed func(int)) fyne.CanvasObject {
	valueLabel := widget.NewLabel(fmt.Sprintf(format, value))
	slider := widget.NewSlider(float64(lo), float64(hi))
	slider.Step = 1
	slider.SetValue(float64(value))
	slider.OnChanged = func(v float64) {
		valueLabel.SetText(fmt.Sprintf(format, int(v)))
		changed(int(v))
	}
	return container.NewVBox(
		container.NewBorder(nil, nil, widget.NewLabel(name), valueLabel),
		slider,
	)
}

func toHex(c color.Color) string {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return fmt.Sprintf("#%02x%02x%02x", n.R, n.G, n.B)
}

// --- Custom Widget for Color Swatches ---
type colorSwatch struct {
	widget.BaseWidget
	Color    color.Color
	OnTapped func(color.Color)
}

func newColorSwatch(c color.Color, tapped func(color.Color)) *colorSwatch {
	s := &colorSwatch{Color: c, OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	rect := canvas.NewRectangle(s.Color)
	rect.SetMinSize(fyne.NewSize(24, 24))

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1

	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

func (s *colorSwatch) Tapped(_ *fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.Color)
	}
}
