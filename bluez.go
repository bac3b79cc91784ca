//go:build !tinygo

package main

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
)

const (
	busName          = "org.bluez"
	adapterIface     = "org.bluez.Adapter1"
	deviceIface      = "org.bluez.Device1"
	gattManagerIface = "org.bluez.GattManager1"
	advManagerIface  = "org.bluez.LEAdvertisingManager1"
	gattServiceIface = "org.bluez.GattService1"
	gattCharIface    = "org.bluez.GattCharacteristic1"
	advIface         = "org.bluez.LEAdvertisement1"
	propsIface       = "org.freedesktop.DBus.Properties"
	propsSignal      = "org.freedesktop.DBus.Properties.PropertiesChanged"
	objManagerIface  = "org.freedesktop.DBus.ObjectManager"

	errNotPermitted = "org.bluez.Error.NotPermitted"
	errInvalidArgs  = "org.freedesktop.DBus.Error.InvalidArgs"
)

// Objects exported for BlueZ to read back.
const (
	appPath     dbus.ObjectPath = "/org/alarmclock"
	servicePath                 = appPath + "/service0"
	rxPath                      = servicePath + "/char0"
	txPath                      = servicePath + "/char1"
	advPath                     = appPath + "/advertisement0"
)

// macFromPath extracts a MAC address from a BlueZ device object path under
// adapter.
func macFromPath(adapter, path dbus.ObjectPath) string {
	s := string(path)
	prefix := string(adapter) + "/dev_"
	if !strings.HasPrefix(s, prefix) {
		return ""
	}
	return strings.ReplaceAll(s[len(prefix):], "_", ":")
}

// bluez is the Linux transport: a Nordic UART GATT service and an LE
// advertisement registered with BlueZ over the system bus.
type bluez struct {
	conn        *dbus.Conn
	adapter     dbus.ObjectPath
	name        string
	frameSize   int
	frameDelay  time.Duration
	advInterval time.Duration
	log         *log.Logger
	post        func(eventKind, []byte)

	mu            sync.Mutex
	notifying     bool
	value         []byte
	advRegistered bool
	devices       map[dbus.ObjectPath]struct{}
}

func newBluez(cfg *Config, logger *log.Logger, post func(eventKind, []byte)) (*bluez, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("connect to system bus: %w", err)
	}
	// Quick check that BlueZ is on the bus.
	var names []string
	if err := conn.BusObject().Call("org.freedesktop.DBus.ListNames", 0).Store(&names); err != nil {
		conn.Close()
		return nil, fmt.Errorf("list bus names: %w", err)
	}
	found := false
	for _, n := range names {
		if n == busName {
			found = true
			break
		}
	}
	if !found {
		conn.Close()
		return nil, fmt.Errorf("org.bluez not found on system bus, is bluetooth.service running?")
	}
	return &bluez{
		conn:        conn,
		adapter:     dbus.ObjectPath("/org/bluez/" + cfg.BLE.Adapter),
		name:        cfg.DeviceName,
		frameSize:   cfg.BLE.FrameSize,
		frameDelay:  cfg.BLE.FrameDelay.Duration,
		advInterval: cfg.BLE.AdvertiseInterval.Duration,
		log:         logger,
		post:        post,
	}, nil
}

func (b *bluez) close() {
	adapter := b.conn.Object(busName, b.adapter)
	b.mu.Lock()
	if b.advRegistered {
		adapter.Call(advManagerIface+".UnregisterAdvertisement", 0, advPath)
		b.advRegistered = false
	}
	b.mu.Unlock()
	adapter.Call(gattManagerIface+".UnregisterApplication", 0, appPath)
	b.conn.Close()
}

// --- property helpers ---

func (b *bluez) getProp(path dbus.ObjectPath, iface, prop string) (dbus.Variant, error) {
	obj := b.conn.Object(busName, path)
	var v dbus.Variant
	err := obj.Call(propsIface+".Get", 0, iface, prop).Store(&v)
	return v, err
}

func (b *bluez) setProp(path dbus.ObjectPath, iface, prop string, val interface{}) error {
	obj := b.conn.Object(busName, path)
	return obj.Call(propsIface+".Set", 0, iface, prop, dbus.MakeVariant(val)).Err
}

func (b *bluez) getBool(path dbus.ObjectPath, iface, prop string) (bool, error) {
	v, err := b.getProp(path, iface, prop)
	if err != nil {
		return false, err
	}
	val, ok := v.Value().(bool)
	if !ok {
		return false, fmt.Errorf("property %s is not bool", prop)
	}
	return val, nil
}

// --- adapter ---

func (b *bluez) ensurePowered() error {
	powered, err := b.getBool(b.adapter, adapterIface, "Powered")
	if err != nil {
		return fmt.Errorf("read adapter %s: %w", b.adapter, err)
	}
	if powered {
		return nil
	}
	b.log.Printf("powering on %s", b.adapter)
	if err := b.setProp(b.adapter, adapterIface, "Powered", true); err != nil {
		return fmt.Errorf("power on: %w", err)
	}
	return nil
}

// --- GATT application ---

// register exports the service objects and hands them to BlueZ.
func (b *bluez) register() error {
	if err := b.ensurePowered(); err != nil {
		return err
	}

	exports := []struct {
		v     interface{}
		path  dbus.ObjectPath
		iface string
	}{
		{&appObject{b}, appPath, objManagerIface},
		{&propsObject{gattServiceIface, b.serviceProps}, servicePath, propsIface},
		{&rxChar{b}, rxPath, gattCharIface},
		{&propsObject{gattCharIface, b.rxProps}, rxPath, propsIface},
		{&txChar{b}, txPath, gattCharIface},
		{&propsObject{gattCharIface, b.txProps}, txPath, propsIface},
		{&advObject{b}, advPath, advIface},
		{&propsObject{advIface, b.advProps}, advPath, propsIface},
	}
	for _, e := range exports {
		if err := b.conn.Export(e.v, e.path, e.iface); err != nil {
			return fmt.Errorf("export %s %s: %w", e.path, e.iface, err)
		}
	}

	adapter := b.conn.Object(busName, b.adapter)
	if err := adapter.Call(gattManagerIface+".RegisterApplication", 0, appPath, map[string]dbus.Variant{}).Err; err != nil {
		return fmt.Errorf("register application: %w", err)
	}
	return nil
}

func (b *bluez) serviceProps() map[string]dbus.Variant {
	return map[string]dbus.Variant{
		"UUID":    dbus.MakeVariant(nusServiceUUID),
		"Primary": dbus.MakeVariant(true),
	}
}

func (b *bluez) rxProps() map[string]dbus.Variant {
	return map[string]dbus.Variant{
		"UUID":    dbus.MakeVariant(nusRXUUID),
		"Service": dbus.MakeVariant(servicePath),
		"Flags":   dbus.MakeVariant([]string{"write", "write-without-response"}),
	}
}

func (b *bluez) txProps() map[string]dbus.Variant {
	b.mu.Lock()
	defer b.mu.Unlock()
	return map[string]dbus.Variant{
		"UUID":      dbus.MakeVariant(nusTXUUID),
		"Service":   dbus.MakeVariant(servicePath),
		"Flags":     dbus.MakeVariant([]string{"read", "notify"}),
		"Value":     dbus.MakeVariant(append([]byte{}, b.value...)),
		"Notifying": dbus.MakeVariant(b.notifying),
	}
}

func (b *bluez) advProps() map[string]dbus.Variant {
	ms := uint32(b.advInterval / time.Millisecond)
	return map[string]dbus.Variant{
		"Type":         dbus.MakeVariant("peripheral"),
		"ServiceUUIDs": dbus.MakeVariant([]string{nusServiceUUID}),
		"LocalName":    dbus.MakeVariant(b.name),
		"MinInterval":  dbus.MakeVariant(ms),
		"MaxInterval":  dbus.MakeVariant(ms),
	}
}

// --- transport ---

// Advertise (re)registers the advertisement so new centrals can find us.
func (b *bluez) Advertise() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	adapter := b.conn.Object(busName, b.adapter)
	if b.advRegistered {
		// Already gone if BlueZ dropped it on connect.
		adapter.Call(advManagerIface+".UnregisterAdvertisement", 0, advPath)
		b.advRegistered = false
	}
	if err := adapter.Call(advManagerIface+".RegisterAdvertisement", 0, advPath, map[string]dbus.Variant{}).Err; err != nil {
		return fmt.Errorf("register advertisement: %w", err)
	}
	b.advRegistered = true
	return nil
}

// Notify sends data to the subscribed central in frameSize pieces.
func (b *bluez) Notify(data []byte) error {
	b.mu.Lock()
	notifying := b.notifying
	b.mu.Unlock()
	if !notifying {
		return ErrNotConnected
	}
	return sendFrames(data, b.frameSize, b.frameDelay, func(frame []byte) error {
		b.mu.Lock()
		b.value = append(b.value[:0], frame...)
		b.mu.Unlock()
		return b.conn.Emit(txPath, propsSignal, gattCharIface,
			map[string]dbus.Variant{"Value": dbus.MakeVariant(frame)}, []string{})
	})
}

// --- signal subscription ---

func (b *bluez) subscribePropertyChanges() chan *dbus.Signal {
	b.conn.BusObject().Call(
		"org.freedesktop.DBus.AddMatch", 0,
		"type='signal',interface='"+propsIface+"',member='PropertiesChanged',path_namespace='"+string(b.adapter)+"'",
	)
	ch := make(chan *dbus.Signal, 16)
	b.conn.Signal(ch)
	return ch
}

// watchSignals turns Connected flips of devices on our adapter into events.
func (b *bluez) watchSignals(sigCh chan *dbus.Signal) {
	for sig := range sigCh {
		if sig.Name != propsSignal {
			continue
		}
		// Body: [interface_name string, changed_props map[string]Variant, invalidated []string]
		if len(sig.Body) < 2 {
			continue
		}
		iface, ok := sig.Body[0].(string)
		if !ok || iface != deviceIface {
			continue
		}
		changed, ok := sig.Body[1].(map[string]dbus.Variant)
		if !ok {
			continue
		}
		connVar, ok := changed["Connected"]
		if !ok {
			continue
		}
		connected, ok := connVar.Value().(bool)
		if !ok {
			continue
		}
		mac := macFromPath(b.adapter, sig.Path)
		if mac == "" {
			continue
		}
		if connected {
			b.log.Printf("device %s connected", mac)
		} else {
			b.log.Printf("device %s disconnected", mac)
		}
		if kind, ok := b.trackDevice(sig.Path, connected); ok {
			b.post(kind, nil)
		}
	}
}

// trackDevice records a device link change. Only the first connection and
// the last disconnection on the adapter are reported.
func (b *bluez) trackDevice(path dbus.ObjectPath, connected bool) (eventKind, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.devices == nil {
		b.devices = make(map[dbus.ObjectPath]struct{})
	}
	_, known := b.devices[path]
	if connected {
		if known {
			return 0, false
		}
		b.devices[path] = struct{}{}
		return eventConnected, len(b.devices) == 1
	}
	if !known {
		return 0, false
	}
	delete(b.devices, path)
	if len(b.devices) > 0 {
		return 0, false
	}
	b.notifying = false
	return eventDisconnected, true
}

// --- exported D-Bus objects ---

type appObject struct{ b *bluez }

func (o *appObject) GetManagedObjects() (map[dbus.ObjectPath]map[string]map[string]dbus.Variant, *dbus.Error) {
	return map[dbus.ObjectPath]map[string]map[string]dbus.Variant{
		servicePath: {gattServiceIface: o.b.serviceProps()},
		rxPath:      {gattCharIface: o.b.rxProps()},
		txPath:      {gattCharIface: o.b.txProps()},
	}, nil
}

// propsObject serves org.freedesktop.DBus.Properties for one interface.
type propsObject struct {
	iface string
	props func() map[string]dbus.Variant
}

func (o *propsObject) Get(iface, name string) (dbus.Variant, *dbus.Error) {
	if iface != o.iface {
		return dbus.Variant{}, dbus.NewError(errInvalidArgs, []interface{}{"unknown interface " + iface})
	}
	v, ok := o.props()[name]
	if !ok {
		return dbus.Variant{}, dbus.NewError(errInvalidArgs, []interface{}{"unknown property " + name})
	}
	return v, nil
}

func (o *propsObject) GetAll(iface string) (map[string]dbus.Variant, *dbus.Error) {
	if iface != o.iface {
		return nil, dbus.NewError(errInvalidArgs, []interface{}{"unknown interface " + iface})
	}
	return o.props(), nil
}

func (o *propsObject) Set(iface, name string, value dbus.Variant) *dbus.Error {
	return dbus.NewError(errNotPermitted, []interface{}{"read-only property " + name})
}

type rxChar struct{ b *bluez }

// WriteValue is called by BlueZ for every write from the central.
func (c *rxChar) WriteValue(value []byte, options map[string]dbus.Variant) *dbus.Error {
	c.b.post(eventDataWritten, value)
	return nil
}

func (c *rxChar) ReadValue(options map[string]dbus.Variant) ([]byte, *dbus.Error) {
	return nil, dbus.NewError(errNotPermitted, []interface{}{"write only"})
}

type txChar struct{ b *bluez }

func (c *txChar) ReadValue(options map[string]dbus.Variant) ([]byte, *dbus.Error) {
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	return append([]byte{}, c.b.value...), nil
}

func (c *txChar) StartNotify() *dbus.Error {
	c.b.mu.Lock()
	c.b.notifying = true
	c.b.mu.Unlock()
	return nil
}

func (c *txChar) StopNotify() *dbus.Error {
	c.b.mu.Lock()
	c.b.notifying = false
	c.b.mu.Unlock()
	return nil
}

type advObject struct{ b *bluez }

// Release is called when BlueZ drops the advertisement.
func (o *advObject) Release() *dbus.Error {
	o.b.log.Println("advertisement released")
	return nil
}
