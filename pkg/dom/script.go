package dom

import (
	"context"
	"encoding/json"
	"fmt"
)

const rectJS = `function(el){const r=el.getBoundingClientRect();return {top:r.top,left:r.left,bottom:r.bottom,right:r.right};}`

const (
	pathJS     = `window.location.pathname`
	viewportJS = `({width: window.innerWidth || document.documentElement.clientWidth, height: window.innerHeight || document.documentElement.clientHeight})`

	queryJS = `(function(sel){
	const rect = ` + rectJS + `;
	return Array.from(document.querySelectorAll(sel)).map((el, i) => ({index: i, rect: rect(el), text: (el.textContent || '').trim()}));
})(%s)`

	clickJS = `(function(sel, i, child){
	const el = document.querySelectorAll(sel)[i];
	if (!el) return false;
	const target = child ? el.querySelector(child) : el;
	if (!target) return false;
	target.click();
	return true;
})(%s, %d, %s)`

	scrollByJS = `window.scrollBy(0, %s)`

	scrollIntoViewJS = `(function(sel, i){
	const el = document.querySelectorAll(sel)[i];
	if (el) el.scrollIntoView({behavior: 'smooth', block: 'center'});
	return !!el;
})(%s, %d)`

	videosJS = `(function(){
	const rect = ` + rectJS + `;
	return Array.from(document.querySelectorAll('video')).map(v => ({
		rect: rect(v),
		currentTime: v.currentTime || 0,
		duration: isFinite(v.duration) ? v.duration : 0,
		ended: !!v.ended,
	}));
})()`

	progressJS = `(function(sel){
	const rect = ` + rectJS + `;
	return Array.from(document.querySelectorAll(sel)).map(el => {
		const style = window.getComputedStyle(el);
		const max = parseFloat(style.maxWidth) || (el.parentElement ? el.parentElement.clientWidth : 0);
		const ratio = max > 0 ? parseFloat(style.width) / max : 0;
		return {rect: rect(el), ratio: isFinite(ratio) ? ratio : 0};
	});
})(%s)`
)

// ScriptDocument implements Document by evaluating small scripts through a
// Runtime. Key and touch input go to the runtime's native input methods.
type ScriptDocument struct {
	rt Runtime
}

// NewScriptDocument wraps rt.
func NewScriptDocument(rt Runtime) *ScriptDocument {
	return &ScriptDocument{rt: rt}
}

func (d *ScriptDocument) Path(ctx context.Context) (string, error) {
	var path string
	if err := d.rt.Eval(ctx, pathJS, &path); err != nil {
		return "", fmt.Errorf("read location: %w", err)
	}
	return path, nil
}

func (d *ScriptDocument) Viewport(ctx context.Context) (Viewport, error) {
	var vp Viewport
	if err := d.rt.Eval(ctx, viewportJS, &vp); err != nil {
		return Viewport{}, fmt.Errorf("read viewport: %w", err)
	}
	return vp, nil
}

func (d *ScriptDocument) Query(ctx context.Context, selector string) ([]Element, error) {
	var els []Element
	if err := d.rt.Eval(ctx, fmt.Sprintf(queryJS, jsString(selector)), &els); err != nil {
		return nil, fmt.Errorf("query %q: %w", selector, err)
	}
	for i := range els {
		els[i].Selector = selector
	}
	return els, nil
}

func (d *ScriptDocument) Click(ctx context.Context, el Element, child string) (bool, error) {
	var ok bool
	expr := fmt.Sprintf(clickJS, jsString(el.Selector), el.Index, jsString(child))
	if err := d.rt.Eval(ctx, expr, &ok); err != nil {
		return false, fmt.Errorf("click %q[%d]: %w", el.Selector, el.Index, err)
	}
	return ok, nil
}

func (d *ScriptDocument) ScrollBy(ctx context.Context, dy float64) error {
	expr := fmt.Sprintf(scrollByJS, jsNumber(dy))
	if err := d.rt.Eval(ctx, expr, nil); err != nil {
		return fmt.Errorf("scroll by %v: %w", dy, err)
	}
	return nil
}

func (d *ScriptDocument) ScrollIntoView(ctx context.Context, el Element) (bool, error) {
	var ok bool
	expr := fmt.Sprintf(scrollIntoViewJS, jsString(el.Selector), el.Index)
	if err := d.rt.Eval(ctx, expr, &ok); err != nil {
		return false, fmt.Errorf("scroll %q[%d] into view: %w", el.Selector, el.Index, err)
	}
	return ok, nil
}

func (d *ScriptDocument) Videos(ctx context.Context) ([]Video, error) {
	var videos []Video
	if err := d.rt.Eval(ctx, videosJS, &videos); err != nil {
		return nil, fmt.Errorf("read videos: %w", err)
	}
	return videos, nil
}

func (d *ScriptDocument) Progress(ctx context.Context, selector string) ([]Progress, error) {
	var out []Progress
	if err := d.rt.Eval(ctx, fmt.Sprintf(progressJS, jsString(selector)), &out); err != nil {
		return nil, fmt.Errorf("read progress %q: %w", selector, err)
	}
	return out, nil
}

func (d *ScriptDocument) KeyDown(ctx context.Context, k Key) error {
	return d.rt.KeyDown(ctx, k)
}

func (d *ScriptDocument) Touch(ctx context.Context, phase TouchPhase, p Point) error {
	return d.rt.Touch(ctx, phase, p)
}

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func jsNumber(f float64) string {
	b, err := json.Marshal(f)
	if err != nil {
		return "0"
	}
	return string(b)
}

// TouchScript returns a script that dispatches a synthetic TouchEvent of the
// given phase on document.body. Drivers without native touch input use it.
func TouchScript(phase TouchPhase, p Point) string {
	touches := fmt.Sprintf(`[new Touch({identifier: Date.now(), target: document.body, clientX: %[1]s, clientY: %[2]s, pageX: %[1]s, pageY: %[2]s})]`, jsNumber(p.X), jsNumber(p.Y))
	if phase == TouchEnd {
		touches = "[]"
	}
	return fmt.Sprintf(`document.body.dispatchEvent(new TouchEvent(%s, {bubbles: true, cancelable: true, view: window, touches: %s}))`, jsString(string(phase)), touches)
}

// KeyScript returns a script that dispatches a synthetic keydown on document.
func KeyScript(k Key) string {
	return fmt.Sprintf(`document.dispatchEvent(new KeyboardEvent('keydown', {key: %s, code: %s, keyCode: %d, which: %d, bubbles: true}))`,
		jsString(k.Key), jsString(k.Code), k.KeyCode, k.KeyCode)
}
